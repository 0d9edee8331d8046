package validation

import (
	"strings"

	"erpcatalog/errors"
)

var previewFormats = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}, ".gif": {},
	".svg": {}, ".bmp": {}, ".tiff": {}, ".tif": {},
}

// FileExtension 返回最后一个点及其后的部分；没有扩展名时 ok=false
func FileExtension(filename string) (ext string, ok bool) {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return "", false
	}
	return filename[idx:], true
}

// ValidateFile 附件：内容非空，文件名非空且带扩展名
func ValidateFile(data []byte, filename string) error {
	if len(data) == 0 {
		return errors.NewInvalidValueError("file", "file data cannot be empty")
	}
	if strings.TrimSpace(filename) == "" {
		return errors.NewInvalidValueError("filename", filename)
	}
	if _, ok := FileExtension(filename); !ok {
		return errors.NewInvalidValueError("filename", filename)
	}
	return nil
}

// ValidatePreviewFile 预览图：在 ValidateFile 基础上限制为常见图片格式（大小写不敏感）
func ValidatePreviewFile(data []byte, filename string) error {
	if err := ValidateFile(data, filename); err != nil {
		return err
	}
	ext, _ := FileExtension(filename)
	if !IsPreviewFormat(ext) {
		return errors.NewInvalidValueError("preview", filename)
	}
	return nil
}

// IsPreviewFormat 扩展名（带点）是否为允许的预览图格式
func IsPreviewFormat(ext string) bool {
	_, ok := previewFormats[strings.ToLower(ext)]
	return ok
}
