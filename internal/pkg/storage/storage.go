package storage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// ErrInvalidData base64 或 data URI 无法解码
var ErrInvalidData = errors.New("invalid base64 data")

// ErrUnsupportedType 文件类型不在允许范围内
var ErrUnsupportedType = errors.New("unsupported file type")

// ErrTooLarge 文件超过大小限制
var ErrTooLarge = errors.New("file too large")

// ErrNotExist 文件不存在
var ErrNotExist = errors.New("file not found")

// ErrInvalidID 合同编号不能作为单级目录名
var ErrInvalidID = errors.New("invalid contract id")

// AllowedTypes 附件允许的 MIME 类型与扩展名
var AllowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"application/pdf": ".pdf",
}

var dataURIPattern = regexp.MustCompile(`^data:([a-zA-Z0-9.+/-]+);base64,`)

var fieldNamePattern = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Store 以上传目录为根的文件存储
type Store struct {
	root    string
	maxSize int64
}

// NewStore 创建文件存储，root 不存在时自动创建
func NewStore(root string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{root: root, maxSize: maxSize}, nil
}

// ContractDir uploads/contracts/<id>，id 必须是单级目录名
func (s *Store) ContractDir(contractID string) (string, error) {
	if err := checkID(contractID); err != nil {
		return "", err
	}
	return filepath.Join(s.root, "contracts", contractID), nil
}

func checkID(contractID string) error {
	if contractID == "" || contractID == "." || contractID == ".." ||
		filepath.Base(contractID) != contractID || strings.ContainsAny(contractID, `/\`) {
		return fmt.Errorf("%q: %w", contractID, ErrInvalidID)
	}
	return nil
}

// Validate 检查大小和嗅探出的 MIME 类型，返回对应扩展名
func (s *Store) Validate(data []byte) (string, error) {
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return "", fmt.Errorf("%d bytes exceeds %d: %w", len(data), s.maxSize, ErrTooLarge)
	}
	mtype := mimetype.Detect(data)
	for allowed, ext := range AllowedTypes {
		if mtype.Is(allowed) {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%s: %w", mtype.String(), ErrUnsupportedType)
}

// SaveContractFile 写入 <field>_<毫秒时间戳><ext>，返回文件名
func (s *Store) SaveContractFile(contractID, fieldName, ext string, data []byte) (string, error) {
	dir, err := s.ContractDir(contractID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	field := fieldNamePattern.ReplaceAllString(fieldName, "_")
	if field == "" {
		field = "file"
	}
	filename := fmt.Sprintf("%s_%d%s", field, time.Now().UnixMilli(), ext)
	path := filepath.Join(dir, filename)
	// 同一字段同一毫秒内多次写入时避免覆盖
	for i := 1; fileExists(path); i++ {
		filename = fmt.Sprintf("%s_%d_%d%s", field, time.Now().UnixMilli(), i, ext)
		path = filepath.Join(dir, filename)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return filename, nil
}

// RemoveContractFile 删除单个附件文件，文件已不存在时不报错
func (s *Store) RemoveContractFile(contractID, filename string) error {
	dir, err := s.ContractDir(contractID)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(dir, filepath.Base(filename)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveContractDir 删除合同附件目录
func (s *Store) RemoveContractDir(contractID string) error {
	dir, err := s.ContractDir(contractID)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// ContractFilePath 返回附件路径，文件名只取最后一段
func (s *Store) ContractFilePath(contractID, filename string) (string, error) {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) || name == ".." {
		return "", ErrNotExist
	}
	dir, err := s.ContractDir(contractID)
	if err != nil {
		return "", ErrNotExist
	}
	path := filepath.Join(dir, name)
	if !fileExists(path) {
		return "", ErrNotExist
	}
	return path, nil
}

// SaveSigned 签署后的 PDF 同时写入合同目录和上传根目录
func (s *Store) SaveSigned(contractID string, data []byte) error {
	dir, err := s.ContractDir(contractID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	name, err := signedName(contractID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.root, name), data, 0644)
}

// SignedPath 返回 uploads/signed_<id>.pdf
func (s *Store) SignedPath(contractID string) (string, error) {
	name, err := signedName(contractID)
	if err != nil {
		return "", ErrNotExist
	}
	path := filepath.Join(s.root, name)
	if !fileExists(path) {
		return "", ErrNotExist
	}
	return path, nil
}

func signedName(contractID string) (string, error) {
	if err := checkID(contractID); err != nil {
		return "", err
	}
	return "signed_" + contractID + ".pdf", nil
}

// DecodeDataURI 解码 data URI 或裸 base64
func DecodeDataURI(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if loc := dataURIPattern.FindStringIndex(value); loc != nil {
		value = value[loc[1]:]
	} else if strings.HasPrefix(value, "data:") {
		idx := strings.Index(value, ",")
		if idx < 0 {
			return nil, ErrInvalidData
		}
		value = value[idx+1:]
	}

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(value); err == nil && len(data) > 0 {
			return data, nil
		}
	}
	return nil, ErrInvalidData
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
