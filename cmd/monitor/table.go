package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	grpcapi "vitals-monitor/internal/api/grpc"
	"vitals-monitor/internal/domain"
)

var statusHeader = []string{"Channel", "State", "Samples", "Policy", "Classification", "Statistic"}

func renderStatusTable(out io.Writer, statuses []grpcapi.ChannelStatus) {
	table := tablewriter.NewWriter(out)
	table.SetHeader(statusHeader)
	table.SetAutoWrapText(false)

	for _, s := range statuses {
		classification := s.Classification
		if classification == "" {
			classification = "-"
		}
		statistic := s.Statistic
		if statistic != "" && s.Unit != "" {
			statistic += " " + s.Unit
		}
		if statistic == "" {
			statistic = "-"
		}
		table.Append([]string{
			s.Channel,
			s.State,
			strconv.Itoa(s.SamplesTaken) + "/" + strconv.Itoa(s.SampleCap),
			s.Policy,
			classification,
			statistic,
		})
	}
	table.Render()
}

// localStatus mirrors what the gRPC ListChannels call reports for a channel.
func localStatus(state domain.ChannelState, summary *domain.Summary) grpcapi.ChannelStatus {
	status := grpcapi.ChannelStatus{
		Channel:      state.Channel,
		State:        state.State.String(),
		Policy:       state.Policy.String(),
		SamplesTaken: state.SamplesTaken,
		SampleCap:    state.SampleCap,
	}
	if summary == nil {
		return status
	}

	status.Classification = summary.Classification.String()
	status.Unit = summary.Unit
	if !summary.HasData() {
		return status
	}
	if summary.Policy == domain.PolicyAll {
		status.Statistic = fmt.Sprintf("mean %.2f", summary.Mean)
	} else {
		status.Statistic = fmt.Sprintf("min %.2f / max %.2f", summary.Min, summary.Max)
	}
	return status
}
