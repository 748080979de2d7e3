package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hossamelshenawy/device-valuator/internal/config"
	"github.com/hossamelshenawy/device-valuator/internal/engine"
	"github.com/hossamelshenawy/device-valuator/internal/store"
	"github.com/hossamelshenawy/device-valuator/pkg/logger"
	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

// valuateRequest is the JSON shape accepted by the valuate command.
type valuateRequest struct {
	Product      string                     `json:"product,omitempty"`
	Spec         *domain.DeviceSpec         `json:"spec,omitempty"`
	Signals      []domain.ConditionSignal   `json:"signals,omitempty"`
	Observations []domain.MarketObservation `json:"observations,omitempty"`
	Currency     string                     `json:"currency,omitempty"`
	Language     string                     `json:"language,omitempty"`
}

func valuateCommand() *cobra.Command {
	var (
		inputFile string
		language  string
		currency  string
	)

	valuateCmd := &cobra.Command{
		Use:   "valuate [product]",
		Short: "Value a device from the command line",
		Long: "Runs a single valuation and prints the result as JSON. The request\n" +
			"is read from --input, or built from the product argument.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValuate(cmd.Context(), args, inputFile, language, currency)
		},
	}
	valuateCmd.Flags().StringVar(&inputFile, "input", "", "JSON request file")
	valuateCmd.Flags().StringVar(&language, "language", "", "report language (en, ar)")
	valuateCmd.Flags().StringVar(&currency, "currency", "", "target currency")

	return valuateCmd
}

func init() {
	rootCmd.AddCommand(valuateCommand())
}

func runValuate(ctx context.Context, args []string, inputFile, language, currency string) error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	var in valuateRequest
	if inputFile != "" {
		data, err := os.ReadFile(inputFile) //nolint:gosec // path from trusted CLI flag
		if err != nil {
			return fmt.Errorf("reading request file: %w", err)
		}
		if err := json.Unmarshal(data, &in); err != nil {
			return fmt.Errorf("parsing request file: %w", err)
		}
	}
	if len(args) == 1 {
		in.Product = args[0]
	}
	if language != "" {
		in.Language = language
	}
	if currency != "" {
		in.Currency = currency
	}

	// The store is optional for one-shot use; without it the fallback
	// pricing path is unavailable.
	var st store.Store
	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	pg, err := store.NewPostgresStore(connCtx, cfg.Database.DSN())
	cancel()
	if err != nil {
		log.Warn("database unavailable, fallback pricing disabled", "err", err)
	} else {
		st = pg
		defer pg.Close()
	}

	eng := buildEngine(cfg, st, log)

	res, err := eng.Valuate(ctx, engine.Request{
		Product:      in.Product,
		Spec:         in.Spec,
		Signals:      in.Signals,
		Observations: in.Observations,
		Currency:     in.Currency,
		Language:     domain.Language(in.Language),
	})
	if err != nil {
		return fmt.Errorf("valuating: %w", err)
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	fmt.Println(string(out))
	return nil
}
