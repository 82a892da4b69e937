//go:build !windows

package path

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsvm/jsvm/src/internal/constants"
	"github.com/jsvm/jsvm/src/internal/ui"
)

// DetectShell returns the user's shell name (bash, zsh, fish, etc.)
func DetectShell() string {
	shell := os.Getenv("SHELL")
	if shell == "" {
		return "unknown"
	}

	return filepath.Base(shell)
}

// GetShellConfigFile returns the config file path for the given shell
func GetShellConfigFile(shell string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch shell {
	case constants.ShellBash:
		// Prefer .bashrc if it exists, otherwise .bash_profile
		bashrc := filepath.Join(home, ".bashrc")
		if _, err := os.Stat(bashrc); err == nil {
			return bashrc
		}
		return filepath.Join(home, ".bash_profile")

	case constants.ShellZsh:
		return filepath.Join(home, ".zshrc")

	case constants.ShellFish:
		return filepath.Join(home, ".config", "fish", "config.fish")

	default:
		return filepath.Join(home, ".profile")
	}
}

// ExportLines returns the shell snippet that puts dirs first on PATH
func ExportLines(shell, home string, dirs []string) string {
	var b strings.Builder
	b.WriteString("\n# Added by jsvm\n")
	if shell == constants.ShellFish {
		fmt.Fprintf(&b, "set -gx %s \"%s\"\n", constants.EnvHome, home)
		fmt.Fprintf(&b, "set -gx PATH %s $PATH\n", quoteAll(dirs, " "))
		return b.String()
	}
	fmt.Fprintf(&b, "export %s=\"%s\"\n", constants.EnvHome, home)
	fmt.Fprintf(&b, "export PATH=\"%s:$PATH\"\n", strings.Join(dirs, ":"))
	return b.String()
}

func quoteAll(dirs []string, sep string) string {
	quoted := make([]string, len(dirs))
	for i, d := range dirs {
		quoted[i] = fmt.Sprintf("%q", d)
	}
	return strings.Join(quoted, sep)
}

// AddToPath puts jsvm's directories on the user's PATH by modifying their
// shell config. Without assumeYes the user is asked first.
func AddToPath(home string, dirs []string, assumeYes bool) error {
	shell := DetectShell()
	if shell == "unknown" {
		return fmt.Errorf("could not detect shell - please add %s to your PATH manually", strings.Join(dirs, ", "))
	}

	configFile := GetShellConfigFile(shell)
	if configFile == "" {
		return fmt.Errorf("could not determine config file for shell %s", shell)
	}

	missing := false
	for _, d := range dirs {
		if !IsInPath(d) {
			missing = true
		}
	}
	if !missing {
		ui.Info("%s already on your PATH", strings.Join(dirs, " and "))
		return nil
	}

	if containsPathModification(configFile, dirs[0]) {
		ui.Warning("PATH modification already exists in %s, but not active in current shell", configFile)
		ui.Info("Please restart your terminal or run: source %s", configFile)
		return nil
	}

	exportLine := ExportLines(shell, home, dirs)

	if !assumeYes {
		ui.Header("PATH Setup Required")
		ui.Info("jsvm needs to add its shims to your PATH")
		ui.Info("Shell: %s", ui.Highlight(shell))
		ui.Info("Config file: %s", ui.Highlight(configFile))
		ui.Info("Will append: %s", ui.Highlight(strings.TrimSpace(exportLine)))
		fmt.Printf("\nProceed? [Y/n]: ")

		var response string
		_, _ = fmt.Scanln(&response)
		response = strings.ToLower(strings.TrimSpace(response))

		if response != "" && response != constants.ResponseY && response != constants.ResponseYes {
			ui.Warning("PATH not modified. Please add this manually to your %s:", configFile)
			ui.Info("%s", strings.TrimSpace(exportLine))
			return nil
		}
	}

	if shell == constants.ShellFish {
		if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	f, err := os.OpenFile(configFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(exportLine); err != nil {
		return fmt.Errorf("failed to write to config file: %w", err)
	}

	ui.Success("Added jsvm to PATH in %s", configFile)
	ui.Warning("Please restart your terminal or run: source %s", configFile)

	return nil
}

// containsPathModification checks if the config file already has the jsvm PATH modification
func containsPathModification(configFile, dir string) bool {
	f, err := os.Open(configFile)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, dir) && (strings.Contains(line, "PATH") || strings.Contains(line, "path")) {
			return true
		}
	}

	return false
}
