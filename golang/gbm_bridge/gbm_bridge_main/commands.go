package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tarstars/gbm_pmml_bridge/golang/gbm_bridge/gbl"
	"github.com/tarstars/gbm_pmml_bridge/golang/gbm_bridge/pmml"
	"github.com/tarstars/gbm_pmml_bridge/golang/gbm_bridge/rawmodel"
	"go.uber.org/zap"
)

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Write the PMML document of a raw model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var config ConvertConfig
			if err := loadConfig(cmd.Flags(), &config); err != nil {
				return err
			}
			return convert(config)
		},
	}
	addModelFlags(cmd)
	addThreadsFlag(cmd)
	cmd.Flags().String("filename_pmml", "", "destination PMML file")
	return cmd
}

func convert(config ConvertConfig) error {
	ensemble, err := loadEnsemble(config.ModelFileName, config.ThreadsNum)
	if err != nil {
		return err
	}

	dst, err := os.Create(config.PMMLFileName)
	if err != nil {
		return err
	}
	doc := ensemble.EncodePMML(pmml.Application{Name: applicationName, Version: applicationVersion})
	if err := pmml.Write(dst, doc); err != nil {
		_ = dst.Close()
		return errors.Wrapf(err, "writing %s", config.PMMLFileName)
	}
	if err := dst.Close(); err != nil {
		return err
	}

	if info, err := os.Stat(config.PMMLFileName); err == nil {
		zap.S().Infof("wrote %s (%s)", config.PMMLFileName, humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score a features npy matrix, writing one prediction per row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var config PredictConfig
			if err := loadConfig(cmd.Flags(), &config); err != nil {
				return err
			}
			return predict(config)
		},
	}
	addModelFlags(cmd)
	addThreadsFlag(cmd)
	cmd.Flags().String("filename_features", "", "npy matrix, one column per feature, NaN for missing values")
	cmd.Flags().String("filename_target", "", "destination npy column of predictions")
	cmd.Flags().Int("trees_number", 0, "sum only the first trees, 0 for all")
	return cmd
}

func predict(config PredictConfig) error {
	ensemble, err := loadEnsemble(config.ModelFileName, config.ThreadsNum)
	if err != nil {
		return err
	}
	features, err := rawmodel.ReadNpy(config.FeaturesFileName)
	if err != nil {
		return err
	}

	var optionalTreeNumber *int
	if config.TreesNumber != 0 {
		optionalTreeNumber = &config.TreesNumber
	}
	prediction, err := ensemble.PredictValue(features, optionalTreeNumber)
	if err != nil {
		return err
	}
	if err := rawmodel.WriteNpy(config.PredictionFileName, prediction); err != nil {
		return err
	}
	h, _ := prediction.Dims()
	zap.S().Infof("wrote %s predictions to %s", humanize.Comma(int64(h)), config.PredictionFileName)
	return nil
}

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render every tree of a raw model with graphviz",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var config GraphConfig
			if err := loadConfig(cmd.Flags(), &config); err != nil {
				return err
			}
			ensemble, err := loadEnsemble(config.ModelFileName, 1)
			if err != nil {
				return err
			}
			return ensemble.RenderTrees(config.DumpPrefix, config.FigureType, config.PicturesDirectory)
		},
	}
	addModelFlags(cmd)
	cmd.Flags().String("figure_type", "svg", "png, svg or jpg")
	cmd.Flags().String("pictures_directory", ".", "destination directory")
	cmd.Flags().String("dump_prefix", "tree", "file name prefix")
	return cmd
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the fields and the trees of a raw model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var config InspectConfig
			if err := loadConfig(cmd.Flags(), &config); err != nil {
				return err
			}
			ensemble, err := loadEnsemble(config.ModelFileName, config.ThreadsNum)
			if err != nil {
				return err
			}
			inspect(cmd, ensemble)
			return nil
		},
	}
	addModelFlags(cmd)
	addThreadsFlag(cmd)
	return cmd
}

func inspect(cmd *cobra.Command, ensemble *gbl.Ensemble) {
	referenced := ensemble.ReferencedFields()

	fields := table.NewWriter()
	fields.SetOutputMirror(cmd.OutOrStdout())
	fields.SetTitle("FIELDS")
	fields.AppendHeader(table.Row{"#", "Name", "Type", "Data type", "Levels", "Used"})
	for i, f := range ensemble.Catalog.Fields() {
		used := "target"
		if i > 0 {
			used = fmt.Sprint(referenced.Contains(f.Name))
		}
		fields.AppendRow(table.Row{i, f.Name, f.OpType, f.DataType, len(f.Values), used})
	}
	fields.Render()

	trees := table.NewWriter()
	trees.SetOutputMirror(cmd.OutOrStdout())
	trees.SetTitle("TREES")
	trees.SetColumnConfigs([]table.ColumnConfig{{Name: "Active fields", WidthMax: 60}})
	trees.AppendHeader(table.Row{"Tree", "Nodes", "Leaves", "Depth", "Active fields"})
	var total gbl.TreeStats
	for _, t := range ensemble.Trees {
		stats := t.Stats()
		total.Nodes += stats.Nodes
		total.Leaves += stats.Leaves
		if stats.Depth > total.Depth {
			total.Depth = stats.Depth
		}
		trees.AppendRow(table.Row{t.Index + 1, stats.Nodes, stats.Leaves, stats.Depth, text.WrapSoft(joinFields(t.ActiveFields), 60)})
	}
	trees.AppendFooter(table.Row{
		humanize.Comma(int64(len(ensemble.Trees))),
		humanize.Comma(int64(total.Nodes)),
		humanize.Comma(int64(total.Leaves)),
		total.Depth,
		fmt.Sprintf("%d of %d", referenced.Cardinality(), ensemble.Catalog.NumFeatures()),
	})
	trees.Render()

	fmt.Fprintf(cmd.OutOrStdout(), "baseline %s\n", pmml.FormatValue(ensemble.Baseline))
}

func joinFields(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
