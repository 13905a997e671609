package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/raywall/fast-simulator-toolkit/pkg/analytics"
	"github.com/raywall/fast-simulator-toolkit/pkg/failure"
	"github.com/raywall/fast-simulator-toolkit/pkg/loader"
	"github.com/raywall/fast-simulator-toolkit/pkg/randsrc"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "simctl",
		Short:         "Ferramentas de linha de comando do motor de falhas",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newPatternCmd(),
		newAnalyzeCmd(),
		newPredictCmd(),
		newApplyCmd(),
		newSimulateCmd(),
		newTypesCmd(),
		newValidateCmd(),
	)
	return root
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readJSON aceita um caminho de arquivo ou "-" para stdin.
func readJSON(cmd *cobra.Command, path string, dst interface{}) error {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("JSON inválido em %s: %w", path, err)
	}
	return nil
}

func newPatternCmd() *cobra.Command {
	var base float64
	var duration, rate int
	var seed int64

	cmd := &cobra.Command{
		Use:   "pattern <tipo>",
		Short: "Gera uma forma de onda (step, ramp, sine, noise, spike, degradation)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := analytics.PatternReport(base, args[0], duration, rate, randsrc.New(seed))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().Float64Var(&base, "base", 100, "valor base")
	cmd.Flags().IntVar(&duration, "duration", 60, "duração em segundos")
	cmd.Flags().IntVar(&rate, "rate", 10, "amostras por segundo")
	cmd.Flags().Int64Var(&seed, "seed", 42, "semente da fonte aleatória")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var values []float64

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Estatísticas descritivas de uma série",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(values) == 0 {
				return fmt.Errorf("--values é obrigatório")
			}
			return printJSON(cmd.OutOrStdout(), analytics.Analyze(values))
		},
	}
	cmd.Flags().Float64SliceVar(&values, "values", nil, "valores separados por vírgula")
	return cmd
}

func newPredictCmd() *cobra.Command {
	var history []float64
	var threshold float64
	var steps int

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Probabilidade de a tendência linear ultrapassar o limite",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := analytics.Forecast(history, threshold, steps)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().Float64SliceVar(&history, "history", nil, "histórico separado por vírgula")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "limite de falha")
	cmd.Flags().IntVar(&steps, "steps", 10, "passos futuros")
	_ = cmd.MarkFlagRequired("threshold")
	return cmd
}

func newApplyCmd() *cobra.Command {
	var paramsPath, scenarioPath string
	var elapsed float64
	var seed int64

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Aplica um cenário de falha a um conjunto de parâmetros",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var params failure.ParameterMap
			if err := readJSON(cmd, paramsPath, &params); err != nil {
				return err
			}
			var sc failure.ScenarioConfig
			if err := readJSON(cmd, scenarioPath, &sc); err != nil {
				return err
			}

			now := time.Now()
			start := now.Add(-time.Duration(elapsed * float64(time.Second)))
			engine := failure.NewEngine(failure.WithSeed(seed), failure.WithStartTime(start))
			out, err := engine.Apply(params, sc, now)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&paramsPath, "params", "", "arquivo JSON com os parâmetros originais")
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "arquivo JSON com failure_parameters e advanced_config")
	cmd.Flags().Float64Var(&elapsed, "elapsed", 0, "segundos desde o início do motor")
	cmd.Flags().Int64Var(&seed, "seed", 42, "semente da fonte aleatória")
	_ = cmd.MarkFlagRequired("params")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func newSimulateCmd() *cobra.Command {
	var paramsPath, advancedPath string
	var duration, rate int
	var seed int64

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Varre uma configuração avançada ao longo do tempo",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var params failure.ParameterMap
			if err := readJSON(cmd, paramsPath, &params); err != nil {
				return err
			}
			var adv failure.AdvancedConfig
			if err := readJSON(cmd, advancedPath, &adv); err != nil {
				return err
			}
			sim, err := analytics.SimulateAdvanced(params, adv, duration, rate, time.Now(), failure.WithSeed(seed))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sim)
		},
	}
	cmd.Flags().StringVar(&paramsPath, "params", "", "arquivo JSON com os parâmetros originais")
	cmd.Flags().StringVar(&advancedPath, "advanced", "", "arquivo JSON com a configuração avançada")
	cmd.Flags().IntVar(&duration, "duration", 60, "duração em segundos")
	cmd.Flags().IntVar(&rate, "rate", 1, "amostras por segundo")
	cmd.Flags().Int64Var(&seed, "seed", 42, "semente da fonte aleatória")
	_ = cmd.MarkFlagRequired("params")
	_ = cmd.MarkFlagRequired("advanced")
	return cmd
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "Lista os tipos de falha e de ruído",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"failure_types": failure.FailureCatalog(),
				"noise_types":   failure.NoiseCatalog(),
			})
		},
	}
}

func newValidateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Valida um arquivo de configuração (caminho local, s3:// ou dynamodb://)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loader.Load(cmd.Context(), file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuração válida: %d simuladores, %d cenários\n", len(cfg.Simulators), len(cfg.Scenarios))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "origem da configuração")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
