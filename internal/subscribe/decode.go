// 文件路径: internal/subscribe/decode.go
// 模块说明: 订阅内容解码，先尝试整体 base64，失败时按纯文本处理，永不报错。
package subscribe

import (
	"bytes"
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode 把订阅原始内容拆成去空白、非空的链接行。
func Decode(raw []byte) []string {
	text, ok := decodeBase64Text(raw)
	if !ok {
		text = plainText(raw)
	}
	return splitLines(text)
}

// decodeBase64Text 严格按标准 base64 解码，结果必须是合法 UTF-8。
func decodeBase64Text(raw []byte) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(string(trimmed))
	if err != nil {
		return "", false
	}
	if !utf8.Valid(decoded) {
		return "", false
	}
	return plainText(decoded), true
}

// plainText 去掉 BOM（UTF-16 BOM 会按 UTF-16 解码），非法字节替换为 U+FFFD。
func plainText(raw []byte) string {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	}
	return string(out)
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
