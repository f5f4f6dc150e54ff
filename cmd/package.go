package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vbuild.dev/pkg/vbuild/internal/metrics"
	m "vbuild.dev/pkg/vbuild/internal/model"
)

const (
	noArchiveFlagName  = "no-archive"
	noManifestFlagName = "no-manifest"
)

const packageLongDescription = `Package build outputs of one variant.

Paths are files or directories, absolute or relative to build/<variant>/<kit>.
Directories are added recursively. Files below the build directory keep their
relative path inside the archive; other files are stored by name.

Writes build/<variant>/<kit>/artifacts.zip and artifacts.json.`

// packageCmd represents the package command.
var packageCmd = newPackageCmd()

func newPackageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package --variant VARIANT [paths...]",
		Short: "Archive build artifacts and write their manifest",
		Long:  packageLongDescription,
		Args:  cobra.MinimumNArgs(1),
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindFlagToConfig(cmd.Flags().Lookup(kitFlagName), buildKitKey)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			values, _ := cmd.Flags().GetStringArray(variantFlagName)

			variants := parseVariants(values)
			if len(variants) != 1 {
				return errors.New("package needs exactly one --variant")
			}

			noArchive, _ := cmd.Flags().GetBool(noArchiveFlagName)
			noManifest, _ := cmd.Flags().GetBool(noManifestFlagName)

			return runPackage(cmd, variants[0], m.BuildKit(viper.GetString(buildKitKey)), parsePaths(args), !noArchive, !noManifest)
		},
	}

	cmd.Flags().StringArrayP(variantFlagName, "V", nil, "variant whose build directory is packaged")
	cmd.Flags().StringP(kitFlagName, "k", defaultBuildKit, "build kit")
	cmd.Flags().Bool(noArchiveFlagName, false, "do not write artifacts.zip")
	cmd.Flags().Bool(noManifestFlagName, false, "do not write artifacts.json")

	return cmd
}

func init() {
	rootCmd.AddCommand(packageCmd)
}

func runPackage(cmd *cobra.Command, variant m.Variant, kit m.BuildKit, paths []m.Path, archive, manifest bool) error {
	ctx := commandContext(cmd)

	root, err := projectRoot()
	if err != nil {
		return err
	}

	newDriver, err := driverFactory(root, metrics.NoopRecorder{})
	if err != nil {
		return err
	}

	driver := newDriver(variant, kit)

	var archivePath, manifestPath m.Path

	if archive {
		if archivePath, err = driver.CreateArtifactsArchive(paths); err != nil {
			return err
		}
	}

	if manifest {
		if manifestPath, err = driver.CreateArtifactsJSON(paths); err != nil {
			return err
		}
	}

	newUI(cmd).DisplayPackaging(ctx, variant, archivePath, manifestPath)

	return nil
}
