package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFlag = "config"

//ConvertConfig is the config of the convert command.
type ConvertConfig struct {
	ModelFileName string `mapstructure:"filename_model"`
	PMMLFileName  string `mapstructure:"filename_pmml"`
	ThreadsNum    int    `mapstructure:"threads_num"`
}

func (c *ConvertConfig) Validate() error {
	if c.ModelFileName == "" {
		return errors.New("filename_model is required")
	}
	if c.PMMLFileName == "" {
		return errors.New("filename_pmml is required")
	}
	return validateThreads(c.ThreadsNum)
}

//PredictConfig is the config of the predict command.
type PredictConfig struct {
	ModelFileName      string `mapstructure:"filename_model"`
	FeaturesFileName   string `mapstructure:"filename_features"`
	PredictionFileName string `mapstructure:"filename_target"`
	TreesNumber        int    `mapstructure:"trees_number"`
	ThreadsNum         int    `mapstructure:"threads_num"`
}

func (c *PredictConfig) Validate() error {
	if c.ModelFileName == "" || c.FeaturesFileName == "" || c.PredictionFileName == "" {
		return errors.New("filename_model, filename_features and filename_target are required")
	}
	if c.TreesNumber < 0 {
		return errors.Errorf("trees_number %d is negative", c.TreesNumber)
	}
	return validateThreads(c.ThreadsNum)
}

//GraphConfig is the config of the graph command.
type GraphConfig struct {
	ModelFileName     string `mapstructure:"filename_model"`
	FigureType        string `mapstructure:"figure_type"`
	PicturesDirectory string `mapstructure:"pictures_directory"`
	DumpPrefix        string `mapstructure:"dump_prefix"`
}

func (c *GraphConfig) Validate() error {
	if c.ModelFileName == "" {
		return errors.New("filename_model is required")
	}
	switch c.FigureType {
	case "png", "svg", "jpg":
	default:
		return errors.Errorf("figure_type %q is not one of png, svg, jpg", c.FigureType)
	}
	return nil
}

//InspectConfig is the config of the inspect command.
type InspectConfig struct {
	ModelFileName string `mapstructure:"filename_model"`
	ThreadsNum    int    `mapstructure:"threads_num"`
}

func (c *InspectConfig) Validate() error {
	if c.ModelFileName == "" {
		return errors.New("filename_model is required")
	}
	return validateThreads(c.ThreadsNum)
}

func validateThreads(threads int) error {
	if threads < 1 {
		return errors.Errorf("threads_num %d must be positive", threads)
	}
	return nil
}

type validator interface {
	Validate() error
}

//loadConfig fills out from the optional JSON or YAML file named by --config and the command
//flags; flags set on the command line take precedence over the file.
func loadConfig(flags *pflag.FlagSet, out validator) error {
	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		return err
	}
	configFile, err := flags.GetString(configFlag)
	if err != nil {
		return err
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading config %s", configFile)
		}
	}
	if err := v.Unmarshal(out); err != nil {
		return errors.Wrap(err, "decoding config")
	}
	return out.Validate()
}
