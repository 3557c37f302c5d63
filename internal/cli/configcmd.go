package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerdneilsfield/doc-forge/internal/config"
	"github.com/nerdneilsfield/doc-forge/pkg/providers/factory"
)

var forceInit bool

// NewConfigCommand 创建 config 命令
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "初始化或查看配置",
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "写入默认配置文件",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if len(args) > 0 {
				path = args[0]
			}
			if path != "" && !forceInit {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("配置文件已存在: %s（使用 --force 覆盖）", path)
				}
			}
			if err := config.SaveConfig(config.NewDefaultConfig(), path); err != nil {
				return fmt.Errorf("保存配置失败: %w", err)
			}
			if path == "" {
				path = "$HOME/.docforge.yaml"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s 已写入默认配置: %s\n", successMark(), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&forceInit, "force", false, "覆盖已存在的配置文件")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "显示当前生效的配置（密钥已遮蔽）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			printConfig(cmd.OutOrStdout(), cfg, factory.GetSupportedProviders())
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
