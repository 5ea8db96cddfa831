// modelconv is a CLI utility for inspecting and converting binary STL models.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/modelconv/internal/config"
	"github.com/Faultbox/modelconv/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Debug("config loaded",
		zap.Float32("normal_epsilon", cfg.Mesh.NormalEpsilon),
		zap.Bool("single_loop", cfg.Mesh.SingleLoop),
		zap.String("log_file", cfg.Logging.LogFile))
	logger.Sugar.Debugf("running %v", flag.Args())

	a := &app{cfg: cfg, log: logger.Named("modelconv"), out: os.Stdout}
	if err := a.run(flag.Args()); err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Fprintln(os.Stderr, ue.Error())
			if ue.full {
				printUsage(os.Stderr)
			}
			logger.Sync()
			os.Exit(2)
		}
		logger.Error("command failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}
