package tools

import "testing"

func TestCatalogHoldsAllRequiredTools(t *testing.T) {
	want := []string{"subfinder", "amass", "httprobe", "nuclei", "katana", "ffuf", "gau", "assetfinder", "gospider"}

	catalog := Catalog()
	if len(catalog) != len(want) {
		t.Fatalf("expected %d catalog entries, got %d", len(want), len(catalog))
	}
	for i, name := range want {
		if catalog[i].Name != name {
			t.Fatalf("expected %s at position %d, got %s", name, i, catalog[i].Name)
		}
	}
}

func TestCatalogEntriesAreComplete(t *testing.T) {
	for _, tool := range Catalog() {
		if tool.Binary == "" {
			t.Fatalf("%s has no binary", tool.Name)
		}
		if tool.InstallPkg == "" {
			t.Fatalf("%s has no install package", tool.Name)
		}
		if len(tool.CheckArgs) == 0 {
			t.Fatalf("%s has no health-check command", tool.Name)
		}
	}
}

func TestLookup(t *testing.T) {
	tool, ok := Lookup("nuclei")
	if !ok {
		t.Fatal("expected nuclei in catalog")
	}
	if tool.InstallPkg != "github.com/projectdiscovery/nuclei/v2/cmd/nuclei@latest" {
		t.Fatalf("unexpected install package: %s", tool.InstallPkg)
	}

	if _, ok := Lookup("nmap"); ok {
		t.Fatal("nmap must not be in the catalog")
	}
}

func TestStateString(t *testing.T) {
	if StateAvailable.String() != "available" || StateMissing.String() != "missing" || StateBroken.String() != "broken" {
		t.Fatal("unexpected state labels")
	}
}
