package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tarstars/gbm_pmml_bridge/golang/gbm_bridge/gbl"
	"github.com/tarstars/gbm_pmml_bridge/golang/gbm_bridge/rawmodel"
	"go.uber.org/zap"
)

const (
	applicationName    = "gbm_bridge"
	applicationVersion = "0.1.0"
)

type rootConfig struct {
	verbose bool
	logPath string
}

func newRootCmd() *cobra.Command {
	config := &rootConfig{}
	rootCmd := &cobra.Command{
		Use:           applicationName,
		Short:         "Convert R gbm models to PMML",
		Long:          "gbm_bridge reads a raw R gbm model (a YAML/JSON document or a directory of npy arrays) and converts it to a PMML 4.2 MiningModel.",
		SilenceUsage:  true,
		Version:       applicationVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger(config.verbose, config.logPath)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&config.verbose, "verbose", "v", false, "log every decoded tree")
	rootCmd.PersistentFlags().StringVar(&config.logPath, "log-path", "", "directory for rotated JSON log files")

	rootCmd.AddCommand(
		newConvertCmd(),
		newPredictCmd(),
		newGraphCmd(),
		newInspectCmd(),
	)
	return rootCmd
}

//addModelFlags adds the flags every command shares.
func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().String(configFlag, "", "a JSON or YAML config file, keys are the flag names")
	cmd.Flags().String("filename_model", "", "raw gbm model: a YAML/JSON document or an npy directory")
}

func addThreadsFlag(cmd *cobra.Command) {
	cmd.Flags().Int("threads_num", 1, "number of goroutines decoding trees")
}

//loadEnsemble reads a raw model and converts it.
func loadEnsemble(modelFileName string, threadsNum int) (*gbl.Ensemble, error) {
	zap.S().Infof("loading raw model %s", modelFileName)
	raw, err := rawmodel.Open(modelFileName)
	if err != nil {
		return nil, err
	}
	gbm, err := gbl.ReadGBM(raw)
	if err != nil {
		return nil, err
	}
	return gbl.Convert(gbm, gbl.ConvertParams{ThreadsNum: threadsNum})
}

func main() {
	err := newRootCmd().Execute()
	_ = zap.L().Sync()
	if err != nil {
		os.Exit(1)
	}
}
