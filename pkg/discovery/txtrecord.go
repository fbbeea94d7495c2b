package discovery

import (
	"fmt"
	"strings"

	"github.com/lanprov-protocol/lanprov-go/pkg/wire"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeEndpointTXT creates TXT records for an endpoint advertisement.
func EncodeEndpointTXT(info *EndpointInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	txt[TXTKeySSID] = info.SSID
	txt[TXTKeyGateway] = info.Gateway

	if info.Path != "" && info.Path != wire.ProvisionPath {
		txt[TXTKeyPath] = info.Path
	}

	return txt
}

// DecodeEndpointTXT parses TXT records from an endpoint advertisement.
func DecodeEndpointTXT(txt TXTRecordMap) (*EndpointInfo, error) {
	info := &EndpointInfo{Path: wire.ProvisionPath}

	ssid, ok := txt[TXTKeySSID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeySSID)
	}
	info.SSID = ssid

	gw, ok := txt[TXTKeyGateway]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyGateway)
	}
	info.Gateway = gw

	if path, ok := txt[TXTKeyPath]; ok {
		info.Path = path
	}

	return info, nil
}

// TXTRecordsToStrings converts a TXT record map to "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	strs := make([]string, 0, len(txt))
	for k, v := range txt {
		strs = append(strs, k+"="+v)
	}
	return strs
}

// StringsToTXTRecords parses "key=value" strings into a TXT record map.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap, len(strs))
	for _, s := range strs {
		k, v, found := strings.Cut(s, "=")
		if !found {
			continue
		}
		txt[k] = v
	}
	return txt
}
