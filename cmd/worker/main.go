package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Alex-AIMS/nz-addresses/app/config"
	"github.com/Alex-AIMS/nz-addresses/app/services"
	"github.com/Alex-AIMS/nz-addresses/internal/bootstrap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var (
		configFile string
		output     string
		workers    int
	)

	rootCmd := &cobra.Command{
		Use:   "worker [input]",
		Short: "Verify a file of addresses against the LINZ register",
		Long: `Reads one raw address per line (stdin when input is "-" or omitted) and
writes one NDJSON result per address, in input order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "-"
			if len(args) == 1 {
				input = args[0]
			}
			return run(cmd.Context(), configFile, input, output, workers)
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file (default config/app.yaml)")
	rootCmd.Flags().StringVarP(&output, "output", "o", "-", "output file")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", services.DefaultBatchWorkers, "concurrent verifications")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile, input, output string, workers int) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	in, closeIn, err := openInput(input)
	if err != nil {
		return err
	}
	defer closeIn()

	addresses, err := readAddresses(in)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(output)
	if err != nil {
		return err
	}
	defer closeOut()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	app.AddressService.SetBatchWorkers(workers)

	logger.Info("Starting Address Worker...", zap.Int("addresses", len(addresses)), zap.Int("workers", workers))
	if err := verifyAll(ctx, app.AddressService, addresses, out); err != nil {
		return err
	}
	logger.Info("Worker finished", zap.Int("addresses", len(addresses)))
	return nil
}

// verifyAll resolves addresses in chunks of services.MaxBatchAddresses, so
// memory stays bounded for register-sized inputs
func verifyAll(ctx context.Context, svc *services.AddressService, addresses []string, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for offset := 0; offset < len(addresses); offset += services.MaxBatchAddresses {
		end := min(offset+services.MaxBatchAddresses, len(addresses))

		results := svc.VerifyBatch(ctx, addresses[offset:end], nil)
		for i := range results {
			results[i].Index += offset
		}
		if err := services.WriteNDJSON(bw, results); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// readAddresses returns the non-blank lines of r, trimmed
func readAddresses(r io.Reader) ([]string, error) {
	var addresses []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		addresses = append(addresses, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read addresses: %w", err)
	}
	return addresses, nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
