package docx

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// EntryDigest 条目摘要，BLAKE3 基于解压后的内容计算
type EntryDigest struct {
	Name           string `json:"name"`
	Method         uint16 `json:"method"`
	Size           uint64 `json:"size"`
	CompressedSize uint64 `json:"compressed_size"`
	CRC32          uint32 `json:"crc32"`
	BLAKE3         string `json:"blake3"`
}

// ChangeKind 条目变化类型
type ChangeKind string

const (
	EntryUnchanged ChangeKind = "unchanged"
	EntryModified  ChangeKind = "modified"
	EntryAdded     ChangeKind = "added"
	EntryRemoved   ChangeKind = "removed"
)

// EntryChange 两个容器之间某个条目的差异
type EntryChange struct {
	Name string     `json:"name"`
	Kind ChangeKind `json:"kind"`
}

// Manifest 计算容器中每个条目的摘要
func Manifest(raw []byte) ([]EntryDigest, error) {
	archive, err := OpenArchive(raw)
	if err != nil {
		return nil, err
	}

	digests := make([]EntryDigest, 0, len(archive.reader.File))
	for _, f := range archive.reader.File {
		sum, err := digestFile(f.Open)
		if err != nil {
			return nil, fmt.Errorf("计算条目 %s 摘要失败: %w", f.Name, err)
		}
		digests = append(digests, EntryDigest{
			Name:           f.Name,
			Method:         f.Method,
			Size:           f.UncompressedSize64,
			CompressedSize: f.CompressedSize64,
			CRC32:          f.CRC32,
			BLAKE3:         sum,
		})
	}
	return digests, nil
}

func digestFile(open func() (io.ReadCloser, error)) (string, error) {
	rc, err := open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	h := blake3.New()
	if _, err := io.Copy(h, io.LimitReader(rc, MaxEntrySize+1)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CompareManifests 按 before 中的顺序列出每个条目的变化，新增条目排在最后
func CompareManifests(before, after []EntryDigest) []EntryChange {
	afterByName := make(map[string]EntryDigest, len(after))
	for _, d := range after {
		if _, dup := afterByName[d.Name]; !dup {
			afterByName[d.Name] = d
		}
	}

	seen := make(map[string]bool, len(before))
	changes := make([]EntryChange, 0, len(before))
	for _, b := range before {
		if seen[b.Name] {
			continue
		}
		seen[b.Name] = true

		a, ok := afterByName[b.Name]
		switch {
		case !ok:
			changes = append(changes, EntryChange{Name: b.Name, Kind: EntryRemoved})
		case a.BLAKE3 != b.BLAKE3:
			changes = append(changes, EntryChange{Name: b.Name, Kind: EntryModified})
		default:
			changes = append(changes, EntryChange{Name: b.Name, Kind: EntryUnchanged})
		}
	}

	for _, a := range after {
		if !seen[a.Name] {
			seen[a.Name] = true
			changes = append(changes, EntryChange{Name: a.Name, Kind: EntryAdded})
		}
	}
	return changes
}

// VerifyEntries 检查转换前后除 allowed 外的条目完全一致
func VerifyEntries(before, after []EntryDigest, allowed ...string) error {
	permitted := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		permitted[name] = true
	}

	for _, c := range CompareManifests(before, after) {
		if c.Kind == EntryUnchanged || (c.Kind == EntryModified && permitted[c.Name]) {
			continue
		}
		return fmt.Errorf("条目 %s 发生了意外变化: %s", c.Name, c.Kind)
	}
	return nil
}
