package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// qrModuleSize 为负数表示每个码元的像素数。
const qrModuleSize = -10

// QRFilename 返回配置文件对应的二维码文件名，例如 config.surge.conf -> config.surge_qr.png。
func QRFilename(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_qr.png"
}

// WriteQRCodes 为每个直链生成一张 PNG，返回按文件名排序的输出路径。
func WriteQRCodes(dir string, rawURLs map[string]string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create qr dir: %w", err)
	}
	names := make([]string, 0, len(rawURLs))
	for name := range rawURLs {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		target := filepath.Join(dir, QRFilename(name))
		if err := qrcode.WriteFile(rawURLs[name], qrcode.Low, qrModuleSize, target); err != nil {
			return nil, fmt.Errorf("write qr code for %s: %w", name, err)
		}
		paths = append(paths, target)
	}
	return paths, nil
}
