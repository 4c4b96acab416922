package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/partscope/partscope/internal/model"
)

var (
	discoverForce    bool
	discoverBrand    string
	discoverModel    string
	discoverCategory string
	discoverGrid     int
)

var discoverCmd = &cobra.Command{
	Use:   "discover <image-file>",
	Short: "Discover components in a product photo and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read image %s", args[0])
		}

		if discoverGrid > 0 {
			cfg.Discovery.GridSize = discoverGrid
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		id, width, height, err := env.Images.Save(data)
		if err != nil {
			return eris.Wrap(err, "store image")
		}
		zap.L().Info("image stored",
			zap.String("image_id", id),
			zap.Int("width", width),
			zap.Int("height", height),
		)

		info := model.ProductInfo{
			Brand:    discoverBrand,
			Model:    discoverModel,
			Category: discoverCategory,
		}

		set, err := env.Pipeline.DiscoverComponents(ctx, id, info, discoverForce)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(set)
	},
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverForce, "force", false, "bypass the result cache")
	discoverCmd.Flags().StringVar(&discoverBrand, "brand", "", "product brand hint")
	discoverCmd.Flags().StringVar(&discoverModel, "model", "", "product model hint")
	discoverCmd.Flags().StringVar(&discoverCategory, "category", "", "product category hint")
	discoverCmd.Flags().IntVar(&discoverGrid, "grid", 0, "prompt grid size (default from config)")
	rootCmd.AddCommand(discoverCmd)
}
