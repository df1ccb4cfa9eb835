package model

import "github.com/martinsuchenak/netgen/internal/ipaddr"

// SubnetSpec is a subnet definition with all address fields already
// parsed and validated by the manifest loader.
type SubnetSpec struct {
	CIDR            ipaddr.CIDR
	Gateway         *ipaddr.Addr // nil derives the network address + 1
	Reserved        []ipaddr.Range
	AZs             []string
	DNS             []string
	CloudProperties map[string]interface{}
}
