package proxy

const (
	minPort = 1
	maxPort = 65535
)

// Missing 返回记录缺失的必填字段名，空切片表示记录可渲染。
func Missing(p Proxy) []string {
	var missing []string
	if p.Server == "" {
		missing = append(missing, "server")
	}
	if p.Port < minPort || p.Port > maxPort {
		missing = append(missing, "port")
	}
	switch p.Kind {
	case KindVmess:
		if p.UUID == "" {
			missing = append(missing, "uuid")
		}
	case KindShadowsocks:
		if p.Cipher == "" {
			missing = append(missing, "cipher")
		}
		if p.Password == "" {
			missing = append(missing, "password")
		}
	case KindTrojan:
		if p.Password == "" {
			missing = append(missing, "password")
		}
	default:
		missing = append(missing, "kind")
	}
	return missing
}

// Valid reports whether p carries every field its kind requires.
func Valid(p Proxy) bool {
	return len(Missing(p)) == 0
}

// FilterValid keeps valid records in their original order.
func FilterValid(proxies []Proxy) []Proxy {
	out := make([]Proxy, 0, len(proxies))
	for _, p := range proxies {
		if Valid(p) {
			out = append(out, p)
		}
	}
	return out
}

// Names 按顺序返回节点名称，重复名称原样保留。
func Names(proxies []Proxy) []string {
	names := make([]string, 0, len(proxies))
	for _, p := range proxies {
		names = append(names, p.Name)
	}
	return names
}
