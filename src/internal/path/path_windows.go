//go:build windows

package path

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"unsafe"

	"github.com/jsvm/jsvm/src/internal/constants"
	"github.com/jsvm/jsvm/src/internal/ui"
	"golang.org/x/sys/windows/registry"
)

var (
	moduser32              = syscall.NewLazyDLL("user32.dll")
	procSendMessageTimeout = moduser32.NewProc("SendMessageTimeoutW")
)

const (
	HWND_BROADCAST   = 0xffff
	WM_SETTINGCHANGE = 0x001A
	SMTO_ABORTIFHUNG = 0x0002
)

// AddToPath puts jsvm's directories on the user's PATH in the registry.
// Without assumeYes the user is asked first.
func AddToPath(home string, dirs []string, assumeYes bool) error {
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

	if !assumeYes {
		ui.Header("PATH Setup Required")
		ui.Info("jsvm needs to add its shims to your PATH")
		ui.Info("Directories: %s", ui.Highlight(strings.Join(dirs, ";")))
		ui.Info("This will modify your user PATH environment variable")
		fmt.Printf("\nProceed? [Y/n]: ")

		var response string
		_, _ = fmt.Scanln(&response)
		response = strings.ToLower(strings.TrimSpace(response))

		if response != "" && response != constants.ResponseY && response != constants.ResponseYes {
			ui.Warning("PATH not modified. You can add it later by running: jsvm setup")
			return nil
		}
	}

	key, err := registry.OpenKey(registry.CURRENT_USER, `Environment`, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to open registry key: %w", err)
	}
	defer func() { _ = key.Close() }()

	currentPath, _, err := key.GetStringValue("Path")
	if err != nil && !errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("failed to read current PATH: %w", err)
	}

	// Prepend so the shims win over any system Node
	newPath := Prepend(Strip(currentPath, dirs...), dirs...)
	if err := key.SetStringValue("Path", newPath); err != nil {
		return fmt.Errorf("failed to update PATH in registry: %w", err)
	}
	if err := key.SetStringValue(constants.EnvHome, home); err != nil {
		return fmt.Errorf("failed to set %s in registry: %w", constants.EnvHome, err)
	}

	broadcastSettingChange()

	ui.Success("Added jsvm to your PATH")
	ui.Warning("Please restart your terminal for the changes to take effect")

	return nil
}

// broadcastSettingChange broadcasts WM_SETTINGCHANGE to notify the system of environment changes
func broadcastSettingChange() {
	env := syscall.StringToUTF16Ptr("Environment")
	_, _, _ = procSendMessageTimeout.Call(
		uintptr(HWND_BROADCAST),
		uintptr(WM_SETTINGCHANGE),
		0,
		uintptr(unsafe.Pointer(env)),
		uintptr(SMTO_ABORTIFHUNG),
		5000, // 5 second timeout
		0,
	)
}

// DetectShell returns "powershell" or "cmd"
func DetectShell() string {
	if os.Getenv("PSModulePath") != "" {
		return "powershell"
	}
	return "cmd"
}

// GetShellConfigFile returns empty string on Windows (no shell config files)
func GetShellConfigFile(shell string) string {
	return ""
}
