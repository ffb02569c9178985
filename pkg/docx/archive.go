package docx

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
)

// MaxEntrySize 单个条目解压后的上限
const MaxEntrySize = 256 << 20

// Archive 内存中的 DOCX (zip) 容器
// 未替换的条目在输出时按原始压缩数据复制
type Archive struct {
	raw      []byte
	reader   *zip.Reader
	replaced map[string][]byte
	order    []string // 新增条目的写入顺序
}

// OpenArchive 打开 zip 容器，raw 会被复制，调用方的切片不会被修改
func OpenArchive(raw []byte) (*Archive, error) {
	if len(raw) == 0 {
		return nil, &InvalidInputError{Reason: ReasonNoFile}
	}

	data := bytes.Clone(raw)
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &InvalidInputError{Reason: ReasonNotContainer, Err: err}
	}

	return &Archive{
		raw:    data,
		reader: reader,
	}, nil
}

// Names 按容器中的顺序返回全部条目名
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.reader.File)+len(a.order))
	for _, f := range a.reader.File {
		names = append(names, f.Name)
	}
	return append(names, a.order...)
}

// Has 检查条目是否存在
func (a *Archive) Has(name string) bool {
	if _, ok := a.replaced[name]; ok {
		return true
	}
	return a.file(name) != nil
}

// Entry 读取条目内容，条目不存在时 ok 为 false
func (a *Archive) Entry(name string) (data []byte, ok bool, err error) {
	if data, ok := a.replaced[name]; ok {
		return bytes.Clone(data), true, nil
	}

	f := a.file(name)
	if f == nil {
		return nil, false, nil
	}

	data, err = readFile(f)
	if err != nil {
		return nil, true, err
	}
	return data, true, nil
}

// WithReplacedEntry 返回替换了指定条目内容的新容器，原容器不变
// 条目不存在时追加到末尾
func (a *Archive) WithReplacedEntry(name string, data []byte) *Archive {
	out := &Archive{
		raw:      a.raw,
		reader:   a.reader,
		replaced: make(map[string][]byte, len(a.replaced)+1),
		order:    append([]string(nil), a.order...),
	}
	for k, v := range a.replaced {
		out.replaced[k] = v
	}

	if _, exists := out.replaced[name]; !exists && a.file(name) == nil {
		out.order = append(out.order, name)
	}
	out.replaced[name] = bytes.Clone(data)
	return out
}

// Bytes 写出完整容器
func (a *Archive) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := a.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo 把容器写入 w
func (a *Archive) WriteTo(w io.Writer) error {
	zw := zip.NewWriter(w)
	if a.reader.Comment != "" {
		if err := zw.SetComment(a.reader.Comment); err != nil {
			return fmt.Errorf("写入ZIP注释失败: %w", err)
		}
	}

	written := make(map[string]bool, len(a.replaced))
	for _, f := range a.reader.File {
		data, ok := a.replaced[f.Name]
		if !ok || written[f.Name] {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("复制条目 %s 失败: %w", f.Name, err)
			}
			continue
		}

		if err := writeEntry(zw, headerFrom(&f.FileHeader), data); err != nil {
			return err
		}
		written[f.Name] = true
	}

	for _, name := range a.order {
		fh := &zip.FileHeader{Name: name, Method: zip.Deflate}
		if err := writeEntry(zw, fh, a.replaced[name]); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("关闭ZIP写入器失败: %w", err)
	}
	return nil
}

func (a *Archive) file(name string) *zip.File {
	for _, f := range a.reader.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// headerFrom 沿用原条目的名称、压缩方式、时间和属性，大小和校验和由写入器重新计算
func headerFrom(src *zip.FileHeader) *zip.FileHeader {
	return &zip.FileHeader{
		Name:           src.Name,
		Comment:        src.Comment,
		NonUTF8:        src.NonUTF8,
		CreatorVersion: src.CreatorVersion,
		Method:         src.Method,
		Modified:       src.Modified,
		ExternalAttrs:  src.ExternalAttrs,
	}
}

func writeEntry(zw *zip.Writer, fh *zip.FileHeader, data []byte) error {
	w, err := zw.CreateHeader(fh)
	if err != nil {
		return fmt.Errorf("创建ZIP文件头 %s 失败: %w", fh.Name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("写入条目 %s 失败: %w", fh.Name, err)
	}
	return nil
}

func readFile(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > MaxEntrySize {
		return nil, fmt.Errorf("条目 %s 过大: %d 字节", f.Name, f.UncompressedSize64)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("打开条目 %s 失败: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxEntrySize+1))
	if err != nil {
		return nil, fmt.Errorf("读取条目 %s 失败: %w", f.Name, err)
	}
	if len(data) > MaxEntrySize {
		return nil, fmt.Errorf("条目 %s 过大", f.Name)
	}
	return data, nil
}
