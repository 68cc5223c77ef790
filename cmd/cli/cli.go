package cli

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/canopy-network/smtkv/lib"
	"github.com/canopy-network/smtkv/smt"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SoftwareVersion is the version printed by the version command
const SoftwareVersion = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "smtkv",
	Short: "the smtkv prover: a sparse merkle tree key value store with compact proofs",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initialize()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdown()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		writeToConsole(SoftwareVersion, nil)
	},
}

var (
	config, l, metrics     = lib.Config{}, lib.NewDefaultLogger(), (*lib.Metrics)(nil)
	generator              = (*smt.ProofGenerator)(nil)
	DataDir                = ""
	printMetrics, hexInput = false, false
)

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(rootHashCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(leavesCmd)
	rootCmd.AddCommand(proveCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(verifyDataCmd)
	rootCmd.AddCommand(verifyUpdateCmd)
	rootCmd.AddCommand(autoCompleteCmd)
	autoCompleteCmd.AddCommand(generateCompleteCmd)
	autoCompleteCmd.AddCommand(autoCompleteInstallCmd)
	// neither the version nor completion needs the data directory
	versionCmd.PersistentPreRunE, autoCompleteCmd.PersistentPreRunE = skipInitialize, skipInitialize
	rootCmd.PersistentFlags().StringVar(&DataDir, "data-dir", lib.DefaultDataDirPath(), "custom data directory location")
	rootCmd.PersistentFlags().BoolVar(&printMetrics, "metrics", false, "print the collected metrics after the command")
	rootCmd.PersistentFlags().BoolVar(&hexInput, "hex", false, "keys and values on the command line are hex encoded")
}

// Execute() runs the command tree
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// initialize() loads the configuration from the data directory and opens the generator over the configured store
func initialize() error {
	c, err := lib.LoadOrCreateConfig(DataDir)
	if err != nil {
		return err
	}
	config = c
	l = lib.NewLogger(lib.LoggerConfig{
		Level:   config.GetLogLevel(),
		NoColor: config.NoColor,
	}, config.DataDirPath)
	if config.MetricsEnabled {
		metrics = lib.NewMetrics(config.MetricsConfig)
	}
	generator, err = smt.NewProofGenerator(config.StoreConfig, metrics, l)
	if err != nil {
		return err
	}
	return nil
}

// skipInitialize() replaces initialize() for commands that do not touch the store
func skipInitialize(*cobra.Command, []string) error { return nil }

// shutdown() closes the generator and prints the metrics if requested
func shutdown() {
	if generator != nil {
		if err := generator.Close(); err != nil {
			l.Error(err.Error())
		}
		generator = nil
	}
	if printMetrics {
		if err := metrics.WriteText(os.Stdout); err != nil {
			l.Error(err.Error())
		}
	}
}

// parseInput() converts a command line key or value into bytes
func parseInput(s string) ([]byte, lib.ErrorI) {
	if hexInput {
		return lib.StringToBytes(s)
	}
	return []byte(s), nil
}

func writeToConsole(a any, err error) {
	if err != nil {
		shutdown()
		l.Fatal(err.Error())
	}
	switch a.(type) {
	case int, uint32, uint64:
		p := message.NewPrinter(language.English)
		if _, err := p.Printf("%d\n", a); err != nil {
			l.Fatal(err.Error())
		}
	case string, *string:
		fmt.Println(a)
	default:
		bz, err := lib.MarshalJSONIndent(a)
		if err != nil {
			l.Fatal(err.Error())
		}
		fmt.Println(string(bz))
	}
}

// AUTO COMPLETE CODE BELOW

var autoCompleteCmd = &cobra.Command{
	Use:   "auto-complete",
	Short: "auto-complete generation and installation (for zsh and bash)",
}

var autoCompleteInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "automatically installs shell completion",
	Run: func(cmd *cobra.Command, args []string) {
		shell := detectShell()
		if shell == "" {
			writeToConsole(nil, errors.New("can't detect shell (only zsh or bash is supported)"))
		}
		completionScript, profileFile := "", ""
		switch shell {
		case "bash":
			profileFile = getBashProfile()
			completionScript = `
smtkv auto-complete generate > ~/.smtkv-completion.sh

# Ensure completion script is sourced only once
if ! grep -q 'source ~/.smtkv-completion.sh' ` + profileFile + `; then
    echo 'source ~/.smtkv-completion.sh' >> ` + profileFile + `
fi`
		case "zsh":
			profileFile = "~/.zshrc"
			completionScript = `
mkdir -p ~/.zsh/completions
smtkv auto-complete generate > ~/.zsh/completions/_smtkv

# Ensure fpath is set only once
if ! grep -q 'fpath=(~/.zsh/completions $fpath)' ` + profileFile + `; then
    echo 'fpath=(~/.zsh/completions $fpath)' >> ` + profileFile + `
fi

# Ensure compinit is set only once
if ! grep -q 'autoload -Uz compinit && compinit' ` + profileFile + `; then
    echo 'autoload -Uz compinit && compinit' >> ` + profileFile + `
fi`
		default:
			writeToConsole(nil, errors.New("unsupported shell (only zsh or bash is supported)"))
		}
		writeToConsole(fmt.Sprintf("Installing completion for: %s", shell), nil)
		if err := exec.Command("sh", "-c", completionScript).Run(); err != nil {
			writeToConsole(nil, fmt.Errorf("error setting up completion: %s", err.Error()))
		}
		writeToConsole(fmt.Sprintf("Completion installed. Restart your shell or run `source %s`", profileFile), nil)
	},
}

var generateCompleteCmd = &cobra.Command{
	Use:   "generate",
	Short: "generate completion script",
	Run: func(cmd *cobra.Command, args []string) {
		switch detectShell() {
		case "bash":
			rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			rootCmd.GenZshCompletion(os.Stdout)
		default:
			writeToConsole(nil, errors.New("unsupported shell, use bash or zsh"))
		}
	},
}

func detectShell() string {
	shell := os.Getenv("SHELL")
	if strings.Contains(shell, "bash") {
		return "bash"
	} else if strings.Contains(shell, "zsh") {
		return "zsh"
	} else if strings.Contains(shell, "fish") {
		return "fish"
	}
	return ""
}

func getBashProfile() string {
	if _, err := os.Stat(os.Getenv("HOME") + "/.bashrc"); err == nil {
		return "~/.bashrc"
	}
	return "~/.bash_profile"
}
