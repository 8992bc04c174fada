package subscribe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/creamcroissant/autoconvert/internal/proxy"
)

const (
	defaultVmessName    = "VMess"
	defaultVmessPort    = 443
	defaultVmessCipher  = "auto"
	defaultVmessNetwork = "tcp"
)

// optionalString 记录字段是否出现在 JSON 中；数字和字符串都会被读成文本。
type optionalString struct {
	Value string
	Set   bool
}

func (o optionalString) orDefault(fallback string) string {
	if !o.Set || o.Value == "" {
		return fallback
	}
	return o.Value
}

// vmessPayload 对应 vmess:// 链接里 base64 包裹的 JSON。
type vmessPayload struct {
	Name    optionalString // ps
	Server  optionalString // add
	Port    optionalString
	UUID    optionalString // id
	AlterID optionalString // aid
	Cipher  optionalString // scy
	Network optionalString // net
	TLS     optionalString
	SNI     optionalString
	Host    optionalString
	Path    optionalString
}

func readVmessPayload(data []byte) (vmessPayload, error) {
	if !gjson.ValidBytes(data) {
		return vmessPayload{}, fmt.Errorf("%w: malformed document", ErrBadJSON)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return vmessPayload{}, fmt.Errorf("%w: expected object", ErrBadJSON)
	}
	field := func(key string) optionalString {
		r := root.Get(key)
		if !r.Exists() || r.Type == gjson.Null {
			return optionalString{}
		}
		return optionalString{Value: strings.TrimSpace(r.String()), Set: true}
	}
	return vmessPayload{
		Name:    field("ps"),
		Server:  field("add"),
		Port:    field("port"),
		UUID:    field("id"),
		AlterID: field("aid"),
		Cipher:  field("scy"),
		Network: field("net"),
		TLS:     field("tls"),
		SNI:     field("sni"),
		Host:    field("host"),
		Path:    field("path"),
	}, nil
}

// resolve 一次性补齐默认值，生成不可变的节点记录。
func (v vmessPayload) resolve() (proxy.Proxy, error) {
	port := defaultVmessPort
	if v.Port.Set {
		n, err := parsePort(v.Port.Value)
		if err != nil {
			return proxy.Proxy{}, err
		}
		port = n
	}
	alterID := 0
	if v.AlterID.Set && v.AlterID.Value != "" {
		n, err := strconv.Atoi(v.AlterID.Value)
		if err != nil {
			return proxy.Proxy{}, fmt.Errorf("%w: aid %q", ErrBadNumber, v.AlterID.Value)
		}
		alterID = n
	}
	sni := v.SNI.Value
	if sni == "" {
		sni = v.Host.Value
	}
	return proxy.Proxy{
		Kind:    proxy.KindVmess,
		Name:    v.Name.orDefault(defaultVmessName),
		Server:  v.Server.Value,
		Port:    port,
		UUID:    v.UUID.Value,
		AlterID: alterID,
		Cipher:  v.Cipher.orDefault(defaultVmessCipher),
		Network: v.Network.orDefault(defaultVmessNetwork),
		TLS:     strings.EqualFold(v.TLS.Value, "tls"),
		SNI:     sni,
		WSPath:  v.Path.Value,
		WSHost:  v.Host.Value,
	}, nil
}

func parseVmess(body string) (proxy.Proxy, error) {
	data, err := decodeLinkBase64(body)
	if err != nil {
		return proxy.Proxy{}, err
	}
	payload, err := readVmessPayload(data)
	if err != nil {
		return proxy.Proxy{}, err
	}
	return payload.resolve()
}
