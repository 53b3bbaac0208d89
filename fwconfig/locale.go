package fwconfig

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// localeEntry is one parsed TSV row: a default-message regex capture plus
// the localized replacement (spec §4.10).
type localeEntry struct {
	message string
	pattern *regexp.Regexp
}

var (
	localeMu    sync.RWMutex
	localeCache *lru.Cache[string, localeEntry]
)

func init() {
	localeCache, _ = lru.New[string, localeEntry](4096)
}

// loadLocales walks dir (typically "<config_dir>/locale") for files named
// "<lang>[.*]" and parses tab-separated "code\tmessage[\tregex]" triples. A
// missing directory degrades silently (spec: "Missing files or languages
// degrade to returning the default").
func loadLocales(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		lang := strings.SplitN(entry.Name(), ".", 2)[0]
		if lang == "" {
			continue
		}
		if err := loadLocaleFile(filepath.Join(dir, entry.Name()), lang); err != nil {
			return fmt.Errorf("loading locale file %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func loadLocaleFile(path, lang string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		entry := localeEntry{message: fields[1]}
		if len(fields) >= 3 && fields[2] != "" {
			pattern, err := regexp.Compile(fields[2])
			if err != nil {
				return fmt.Errorf("compiling locale regex for %s: %w", fields[0], err)
			}
			entry.pattern = pattern
		}
		localeMu.Lock()
		localeCache.Add(localeKey(lang, fields[0]), entry)
		localeMu.Unlock()
	}
	return scanner.Err()
}

func localeKey(lang, code string) string {
	return lang + "\x00" + code
}

// GetMessage resolves code's localized message for lang, substituting
// {n} placeholders captured from def via the locale entry's regex, if any
// (spec §4.10). Unknown code/lang pairs return def unchanged.
func GetMessage(code, def, lang string) string {
	localeMu.RLock()
	entry, ok := localeCache.Get(localeKey(lang, code))
	localeMu.RUnlock()
	if !ok {
		return def
	}
	if entry.pattern == nil {
		return entry.message
	}
	matches := entry.pattern.FindStringSubmatch(def)
	if matches == nil {
		return entry.message
	}
	msg := entry.message
	for i := 1; i < len(matches); i++ {
		msg = strings.ReplaceAll(msg, fmt.Sprintf("{%d}", i-1), matches[i])
	}
	return msg
}
