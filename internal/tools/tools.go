package tools

// Tool describes one required external scanner binary: how to install it
// and how to prove it still works. The catalog is static; descriptors are
// looked up by name and never mutated at runtime.
type Tool struct {
	Name        string
	Binary      string
	InstallPkg  string   // go install target
	CheckArgs   []string // health-check invocation, exit 0 means healthy
	Description string
}

// State classifies a tool after a check pass.
type State int

const (
	StateAvailable State = iota
	StateMissing
	StateBroken
)

func (s State) String() string {
	switch s {
	case StateAvailable:
		return "available"
	case StateMissing:
		return "missing"
	case StateBroken:
		return "broken"
	}
	return "unknown"
}

// Status is the check result for one catalog entry.
type Status struct {
	Tool    Tool
	State   State
	Version string
}

// Catalog returns the required tools in stable order. Every entry must be
// available (or successfully installed) before a scan may start.
func Catalog() []Tool {
	return []Tool{
		{"subfinder", "subfinder", "github.com/projectdiscovery/subfinder/v2/cmd/subfinder@latest", []string{"-version"}, "Subdomain discovery tool"},
		{"amass", "amass", "github.com/owasp/amass/v4/cmd/amass@latest", []string{"-version"}, "Subdomain enumeration tool"},
		{"httprobe", "httprobe", "github.com/tomnomnom/httprobe@latest", []string{"-h"}, "HTTP/HTTPS probing tool"},
		{"nuclei", "nuclei", "github.com/projectdiscovery/nuclei/v2/cmd/nuclei@latest", []string{"-version"}, "Vulnerability scanner"},
		{"katana", "katana", "github.com/projectdiscovery/katana/cmd/katana@latest", []string{"-h"}, "Web crawler"},
		{"ffuf", "ffuf", "github.com/ffuf/ffuf@latest", []string{"-h"}, "Web fuzzer"},
		{"gau", "gau", "github.com/lc/gau/v2/cmd/gau@latest", []string{"-h"}, "URL discovery tool"},
		{"assetfinder", "assetfinder", "github.com/tomnomnom/assetfinder@latest", []string{"--help"}, "Subdomain discovery tool from tomnomnom"},
		{"gospider", "gospider", "github.com/jaeles-project/gospider@latest", []string{"-h"}, "Fast web spider"},
	}
}

// Lookup returns the descriptor for a tool name.
func Lookup(name string) (Tool, bool) {
	for _, t := range Catalog() {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}
