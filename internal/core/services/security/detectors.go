package security

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
)

// Detector defines the interface for behaviour heuristics. Name is the tag
// rules refer to in their behavior option.
type Detector interface {
	Name() string
	Analyze(sample *FileSample) bool
}

var (
	executableExts = map[string]bool{
		".exe": true, ".dll": true, ".scr": true, ".com": true, ".pif": true,
		".msi": true, ".bin": true, ".elf": true, ".so": true, ".dylib": true, ".app": true,
	}
	scriptExts = map[string]bool{
		".sh": true, ".bash": true, ".ps1": true, ".bat": true, ".cmd": true, ".vbs": true,
		".js": true, ".jse": true, ".wsf": true, ".py": true, ".pl": true, ".rb": true, ".hta": true,
	}
	documentExts = map[string]bool{
		".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true,
		".txt": true, ".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".mp3": true,
		".mp4": true, ".zip": true, ".rtf": true, ".odt": true,
	}

	magicELF   = []byte{0x7f, 'E', 'L', 'F'}
	magicMZ    = []byte{'M', 'Z'}
	magicMachO = [][]byte{
		{0xfe, 0xed, 0xfa, 0xce}, {0xfe, 0xed, 0xfa, 0xcf},
		{0xce, 0xfa, 0xed, 0xfe}, {0xcf, 0xfa, 0xed, 0xfe},
	}
)

// DoubleExtensionDetector flags names like invoice.pdf.exe.
type DoubleExtensionDetector struct{}

func (d *DoubleExtensionDetector) Name() string { return "double_extension" }

func (d *DoubleExtensionDetector) Analyze(s *FileSample) bool {
	name := strings.ToLower(s.Name)
	last := filepath.Ext(name)
	if !executableExts[last] && !scriptExts[last] {
		return false
	}
	prev := filepath.Ext(strings.TrimSuffix(name, last))
	return documentExts[prev]
}

// HiddenDetector flags dot files.
type HiddenDetector struct{}

func (d *HiddenDetector) Name() string { return "hidden" }

func (d *HiddenDetector) Analyze(s *FileSample) bool {
	return strings.HasPrefix(s.Name, ".") && s.Name != "." && s.Name != ".."
}

// ExecutableDetector checks the extension, the permission bits and the binary header.
type ExecutableDetector struct{}

func (d *ExecutableDetector) Name() string { return "executable" }

func (d *ExecutableDetector) Analyze(s *FileSample) bool {
	if executableExts[strings.ToLower(filepath.Ext(s.Name))] {
		return true
	}
	if s.Info != nil && s.Info.Mode().Perm()&0o111 != 0 {
		return true
	}
	head := s.Head()
	if bytes.HasPrefix(head, magicELF) || bytes.HasPrefix(head, magicMZ) {
		return true
	}
	for _, m := range magicMachO {
		if bytes.HasPrefix(head, m) {
			return true
		}
	}
	return false
}

// ScriptDetector checks script extensions and shebang lines.
type ScriptDetector struct{}

func (d *ScriptDetector) Name() string { return "script" }

func (d *ScriptDetector) Analyze(s *FileSample) bool {
	if scriptExts[strings.ToLower(filepath.Ext(s.Name))] {
		return true
	}
	return bytes.HasPrefix(s.Head(), []byte("#!"))
}

// EntropyDetector flags packed or encrypted content.
type EntropyDetector struct {
	Threshold float64
	MinBytes  int
}

func (d *EntropyDetector) Name() string { return "high_entropy" }

func (d *EntropyDetector) Analyze(s *FileSample) bool {
	head := s.Head()
	if len(head) < d.MinBytes {
		return false
	}
	return ShannonEntropy(head) >= d.Threshold
}

// EmptyDetector flags zero-length files.
type EmptyDetector struct{}

func (d *EmptyDetector) Name() string { return "empty" }

func (d *EmptyDetector) Analyze(s *FileSample) bool {
	return s.Info != nil && s.Info.Size() == 0
}

// ShannonEntropy returns the entropy of data in bits per byte (0..8).
func ShannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	n := float64(len(data))
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	return h
}
