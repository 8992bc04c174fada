package protocol

import (
	"time"

	"github.com/creamcroissant/autoconvert/internal/proxy"
)

var fixedTime = time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

func sampleProxies() []proxy.Proxy {
	return []proxy.Proxy{
		{
			Kind:     proxy.KindShadowsocks,
			Name:     "MyNode",
			Server:   "example.com",
			Port:     8388,
			Cipher:   "aes-256-gcm",
			Password: "password",
		},
		{
			Kind:    proxy.KindVmess,
			Name:    "HK 01",
			Server:  "hk.example.com",
			Port:    443,
			UUID:    "b831381d-6324-4d53-ad4f-8cda48b30811",
			Cipher:  "auto",
			Network: "ws",
			TLS:     true,
			SNI:     "cdn.example.com",
			WSPath:  "/ray",
			WSHost:  "cdn.example.com",
		},
		{
			Kind:   proxy.KindVmess,
			Name:   "Bad",
			Server: "1.2.3.4",
			Port:   0,
		},
		{
			Kind:     proxy.KindTrojan,
			Name:     "Edge",
			Server:   "host.example",
			Port:     443,
			Password: "secret",
			SNI:      "host.example",
		},
		{
			Kind:    proxy.KindVmess,
			Name:    "JP",
			Server:  "jp.example.com",
			Port:    8443,
			UUID:    "uuid-jp",
			AlterID: 2,
			Cipher:  "auto",
			Network: "tcp",
			WSHost:  "ignored.example.com",
		},
	}
}

var sampleValidNames = []string{"MyNode", "HK 01", "Edge", "JP"}
