//go:build wireinject

package main

import (
	"context"
	"io"

	"github.com/google/wire"
)

func initApplication(ctx context.Context, out io.Writer, overrides flagOverrides) (*application, func(), error) {
	wire.Build(
		provideConfig,
		provideServiceName,
		provideLogger,
		provideClock,
		provideChannels,
		provideBoard,
		providePanel,
		provideArchive,
		provideQueue,
		provideWorkerPool,
		provideSink,
		provideMonitor,
		newApplication,
		assembleApplication,
	)
	return nil, nil, nil
}
