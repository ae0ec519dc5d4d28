package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/locness-lab/gpslogger/internal/config"
	"github.com/locness-lab/gpslogger/internal/gps"
	"github.com/locness-lab/gpslogger/internal/store"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "config.toml", "configuration file")
		port       = pflag.StringP("port", "p", "", "serial port (overrides config)")
		baudrate   = pflag.IntP("baudrate", "b", 0, "serial baudrate (overrides config)")
		single     = pflag.BoolP("single", "s", false, "read a single GPS fix and exit")
		csvFile    = pflag.String("csv-file", "", "CSV output file (overrides config)")
		dbFile     = pflag.String("db-file", "", "SQLite database file (overrides config)")
	)
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.GPS.Port = *port
	}
	if *baudrate != 0 {
		cfg.GPS.Baudrate = *baudrate
	}
	if *csvFile != "" {
		cfg.Files.CSVFilename = *csvFile
	}
	if *dbFile != "" {
		cfg.Files.DBFilename = *dbFile
	}

	logger, err := setupLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *single {
		if err := runSingle(ctx, cfg, logger); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to read GPS data")
			logger.Error().Err(err).Msg("single-shot read failed")
			os.Exit(1)
		}
		return
	}
	if err := runContinuous(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("logger failed")
	}
}

func runSingle(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	acq := &gps.Acquirer{
		Open: func() (gps.Source, error) {
			return gps.Open(cfg.GPS.Port, cfg.GPS.Baudrate, cfg.GPS.ReadTimeout())
		},
		Log: logger.With().Str("module", "acquire").Logger(),
	}
	fmt.Printf("Reading single GPS fix from %s...\n", cfg.GPS.Port)
	fix, err := acq.ReadSingle(ctx)
	if err != nil {
		return err
	}
	fmt.Println("GPS Data:")
	fmt.Printf("  PC Time: %s\n", fix.PCTime.Format("2006-01-02T15:04:05"))
	fmt.Printf("  NMEA Time: %s\n", fix.NMEATime)
	fmt.Printf("  Latitude: %.6f\n", fix.Latitude)
	fmt.Printf("  Longitude: %.6f\n", fix.Longitude)
	return nil
}

func runContinuous(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	st, err := store.Open(cfg.Files.CSVFilename, cfg.Files.DBFilename, cfg.Database.TableName, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	acq := &gps.Acquirer{
		Open: func() (gps.Source, error) {
			return gps.Open(cfg.GPS.Port, cfg.GPS.Baudrate, cfg.GPS.ReadTimeout())
		},
		Sink: st,
		Log:  logger.With().Str("module", "acquire").Logger(),
	}
	logger.Info().Str("port", cfg.GPS.Port).Int("baud", cfg.GPS.Baudrate).Msg("starting GPS logging")
	err = acq.Run(ctx)
	if ctx.Err() != nil {
		logger.Info().Msg("stopping GPS logging")
		return nil
	}
	return err
}

// setupLogger writes human-readable logs to stderr and, when configured,
// to a log file as well.
func setupLogger(cfg config.Logging) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid logging.level %q: %w", cfg.Level, err)
	}
	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02T15:04:05"}}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, f)
	}
	return zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger(), nil
}
