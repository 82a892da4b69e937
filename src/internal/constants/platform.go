// Package constants defines common constants used across jsvm
package constants

// Operating systems
const (
	OSWindows = "windows"
	OSDarwin  = "darwin"
	OSLinux   = "linux"
)

// CPU architectures
const (
	ArchAMD64 = "amd64"
	ArchARM64 = "arm64"
	Arch386   = "386"
	ArchARM   = "arm"
)

// Shell types
const (
	ShellBash = "bash"
	ShellZsh  = "zsh"
	ShellFish = "fish"
)

// User responses
const (
	ResponseYes = "yes"
	ResponseY   = "y"
	ResponseNo  = "no"
	ResponseN   = "n"
)

// File extensions
const (
	ExtExe = ".exe"
	ExtCmd = ".cmd"
	ExtBat = ".bat"
)

// Executable names
const (
	AppName      = "jsvm"
	ShimExecName = "jsvm-shim"
)

// Environment variables
const (
	EnvHome     = "JSVM_HOME"
	EnvBypass   = "JSVM_BYPASS"
	EnvVerbose  = "JSVM_VERBOSE"
	EnvLogFile  = "JSVM_LOGFILE"
	EnvInternal = "JSVM_INTERNAL_GLOBAL"
)
