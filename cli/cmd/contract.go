package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fluxbase-eu/mqbundle/cli/output"
	"github.com/fluxbase-eu/mqbundle/internal/mathquill"
)

var contractVersion int

var contractCmd = &cobra.Command{
	Use:   "contract",
	Short: "Show the interface the bundle exposes to pages",
	Long: `Print the capability groups of the math-field interface: configuration
options, instance methods, editable-field methods and factory entry points.

Examples:
  mqbundle contract
  mqbundle contract --version 1 -o yaml
  mqbundle contract validate mathfield.yaml`,
	Args: cobra.NoArgs,
	RunE: runContract,
}

var contractValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a math-field configuration file",
	Long: `Check a YAML (or JSON) math-field configuration against the interface rules:
leftRightIntoCmdGoes is "up" or "down", maxDepth is not negative and every
autoCommand is an alphabetic word of two or more letters.

Example file:
  spaceBehavesLikeTab: true
  autoCommands: pi theta sqrt sum
  maxDepth: 10`,
	Args: cobra.ExactArgs(1),
	RunE: runContractValidate,
}

func init() {
	contractCmd.Flags().IntVar(&contractVersion, "version", mathquill.LatestVersion, "Interface version")
	contractCmd.AddCommand(contractValidateCmd)
}

func runContract(cmd *cobra.Command, args []string) error {
	if contractVersion < 1 || contractVersion > mathquill.LatestVersion {
		return fmt.Errorf("%w: %d (latest is %d)", mathquill.ErrUnknownVersion, contractVersion, mathquill.LatestVersion)
	}

	groups := mathquill.Groups()
	formatter := GetFormatter()
	if formatter.Structured() {
		return formatter.Print(map[string]interface{}{
			"version":   contractVersion,
			"providers": mathquill.Versions(),
			"groups":    groups,
		})
	}

	data := output.TableData{Headers: []string{"GROUP", "OPERATION", "SIGNATURE", "DESCRIPTION"}}
	for _, g := range groups {
		for _, op := range g.Operations {
			data.Rows = append(data.Rows, []string{string(g.Group), op.Name, op.Signature, op.Description})
		}
	}
	if err := formatter.PrintTable(data); err != nil {
		return err
	}

	providers := make([]string, 0, len(mathquill.Versions()))
	for _, v := range mathquill.Versions() {
		providers = append(providers, strconv.Itoa(v))
	}
	if len(providers) == 0 {
		providers = append(providers, "none")
	}
	formatter.PrintSuccess(fmt.Sprintf("\nInterface version %d, registered providers: %s",
		contractVersion, strings.Join(providers, ", ")))
	return nil
}

func runContractValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadMathFieldConfig(args[0])
	if err != nil {
		return err
	}

	formatter := GetFormatter()
	if formatter.Structured() {
		return formatter.Print(map[string]interface{}{
			"file":          args[0],
			"valid":         true,
			"auto_commands": cfg.AutoCommandList(),
		})
	}
	formatter.PrintSuccess(fmt.Sprintf("%s: valid (%d auto commands)", args[0], len(cfg.AutoCommandList())))
	return nil
}

func loadMathFieldConfig(path string) (*mathquill.Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is given by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg mathquill.Config
	// YAML is a superset of JSON, so both file types decode here.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}
