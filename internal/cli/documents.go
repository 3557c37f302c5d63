package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listUser string

// NewDocumentsCommand 创建 documents 命令
func NewDocumentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "管理已保存的文档记录",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "列出某个用户的文档",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newApp(false)
			if err != nil {
				return err
			}
			defer rt.finish(cmd)

			svc, closeFn, err := rt.openService()
			if err != nil {
				return err
			}
			defer closeFn()

			docs, err := svc.List(cmd.Context(), listUser)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), docs)
			}
			if len(docs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No documents for user %q.\n", listUser)
				return nil
			}
			printDocuments(cmd.OutOrStdout(), docs)
			return nil
		},
	}
	listCmd.Flags().StringVarP(&listUser, "user", "u", "", "文档所有者 ID（必填）")
	listCmd.Flags().BoolVar(&jsonOutput, "json", false, "以 JSON 输出")
	_ = listCmd.MarkFlagRequired("user")

	cmd.AddCommand(listCmd)
	return cmd
}
