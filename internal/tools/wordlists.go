package tools

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// WordlistCachePath is the local cache for the fuzzing wordlist.
var WordlistCachePath = "/tmp/common.txt"

// localWordlistPaths are well-known wordlists used when the download fails.
func localWordlistPaths() []string {
	return []string{
		"/usr/share/wordlists/dirb/common.txt",
		"/usr/share/seclists/Discovery/Web-Content/common.txt",
		"/usr/share/wordlists/seclists/Discovery/Web-Content/common.txt",
	}
}

// DownloadWordlist fetches the fuzzing wordlist to the fixed cache path.
// A cache file that already has content is reused without a download.
func DownloadWordlist(url string) (string, error) {
	if info, err := os.Stat(WordlistCachePath); err == nil && info.Size() > 0 {
		return WordlistCachePath, nil
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return "", fmt.Errorf("download wordlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download wordlist: HTTP %d", resp.StatusCode)
	}

	out, err := os.Create(WordlistCachePath)
	if err != nil {
		return "", fmt.Errorf("create wordlist cache: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(WordlistCachePath)
		return "", fmt.Errorf("write wordlist cache: %w", err)
	}
	return WordlistCachePath, nil
}

// FindLocalWordlist returns the first existing well-known wordlist, or ""
// when none is present.
func FindLocalWordlist() string {
	for _, p := range localWordlistPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
