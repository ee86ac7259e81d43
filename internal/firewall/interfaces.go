package firewall

// AccessController is the contract the knock engine holds on the firewall.
// Implementations must be safe for concurrent use.
type AccessController interface {
	// OpenPort admits addr to the given protected port.
	OpenPort(addr string, port uint16) error

	// ClosePort removes addr's admission to the given protected port.
	ClosePort(addr string, port uint16) error

	// BlockAddress drops all traffic from addr.
	BlockAddress(addr string) error

	// UnblockAddress lifts a block placed by BlockAddress.
	UnblockAddress(addr string) error

	// IsBlocked reports whether addr is currently blocked.
	IsBlocked(addr string) (bool, error)
}

// CommandRunner abstracts shell command execution so controllers can be
// tested without a kernel.
type CommandRunner interface {
	Run(name string, args ...string) error
	RunInput(input string, name string, args ...string) error
	Output(name string, args ...string) ([]byte, error)
}

// RealCommandRunner executes actual shell commands.
// Methods are implemented in command_linux.go and command_stub.go.
type RealCommandRunner struct{}

// DefaultCommandRunner is the default command runner.
var DefaultCommandRunner CommandRunner = &RealCommandRunner{}
