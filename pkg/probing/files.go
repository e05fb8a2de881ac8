package probing

import (
	"os"
	"strconv"
	"strings"
)

// File reads a whole file as a string.
func File(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FileLines reads a file into lines
func FileLines(path string) ([]string, error) {
	v, err := File(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(v, "\n"), nil
}

// FileKV reads a key-value file like /proc/meminfo
func FileKV(path, sep string) (map[string]string, error) {
	lines, err := FileLines(path)
	if err != nil {
		return nil, err
	}
	kv := make(map[string]string)
	for _, line := range lines {
		idx := strings.Index(line, sep)
		if idx != -1 {
			key := strings.TrimSpace(line[:idx])
			val := strings.TrimSpace(line[idx+len(sep):])
			kv[key] = val
		}
	}
	return kv, nil
}

// MemInfo reads /proc/meminfo style content into kB values. Lines that do
// not parse are skipped.
func MemInfo(path string) (map[string]uint64, error) {
	kv, err := FileKV(path, ":")
	if err != nil {
		return nil, err
	}
	result := make(map[string]uint64, len(kv))
	for k, v := range kv {
		v = strings.TrimSpace(strings.TrimSuffix(v, " kB"))
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			continue
		}
		result[k] = n
	}
	return result, nil
}
