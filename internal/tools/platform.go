package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Platform describes where tool binaries come from and go on this system.
type Platform struct {
	OS       string
	Arch     string
	GoBinDir string
}

func DetectPlatform() *Platform {
	p := &Platform{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	gopath := os.Getenv("GOPATH")
	if gopath == "" {
		home, _ := os.UserHomeDir()
		gopath = filepath.Join(home, "go")
	}
	p.GoBinDir = filepath.Join(gopath, "bin")

	return p
}

func (p *Platform) String() string {
	return fmt.Sprintf("%s/%s", p.OS, p.Arch)
}
