package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/virtualboard/relnotes/internal/config"
	"github.com/virtualboard/relnotes/internal/util"
)

func respond(cmd *cobra.Command, opts *config.Options, success bool, message string, data interface{}) error {
	if opts.JSONOutput {
		payload := util.NewResponse(success, message, data)
		return util.PrintJSON(cmd.OutOrStdout(), payload)
	}
	if message != "" {
		fmt.Fprintln(cmd.OutOrStdout(), message)
	}
	return nil
}
