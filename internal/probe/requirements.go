package probe

// DefaultRequirements lists the tools the orchestration flow depends on:
// curl for the generic installer path and the model daemon binary itself.
func DefaultRequirements() []ToolRequirement {
	return []ToolRequirement{
		{
			Name: "curl",
			Strategies: []InstallStrategy{
				{Manager: ManagerApt, Desc: "apt-get install curl", Sudo: true, Steps: [][]string{
					{"apt-get", "update", "-qq"},
					{"apt-get", "install", "-y", "curl"},
				}},
				{Manager: ManagerDnf, Desc: "dnf install curl", Sudo: true, Steps: [][]string{
					{"dnf", "install", "-y", "curl"},
				}},
				{Manager: ManagerPacman, Desc: "pacman install curl", Sudo: true, Steps: [][]string{
					{"pacman", "-S", "--needed", "--noconfirm", "curl"},
				}},
				{Manager: ManagerBrew, Desc: "brew install curl", Steps: [][]string{
					{"brew", "install", "curl"},
				}},
				{Manager: ManagerApk, Desc: "apk add curl", Sudo: true, Steps: [][]string{
					{"apk", "add", "--no-cache", "curl"},
				}},
				{Manager: ManagerZypper, Desc: "zypper install curl", Sudo: true, Steps: [][]string{
					{"zypper", "--non-interactive", "install", "curl"},
				}},
			},
		},
		{
			Name: "ollama",
			Strategies: []InstallStrategy{
				{Manager: ManagerPacman, Desc: "pacman install ollama", Sudo: true, Steps: [][]string{
					{"pacman", "-S", "--needed", "--noconfirm", "ollama"},
				}},
				{Manager: ManagerBrew, Desc: "brew install ollama", Steps: [][]string{
					{"brew", "install", "ollama"},
				}},
				// Vendor install script works on any Linux distro with curl.
				{Manager: ManagerAny, Desc: "vendor install script", Steps: [][]string{
					{"sh", "-c", "curl -fsSL https://ollama.com/install.sh | sh"},
				}},
			},
		},
	}
}
