package nftoken

import (
	"encoding/binary"
	"fmt"

	"nftokview/pkg/models"

	"github.com/mr-tron/base58"
)

// EncodeNFT serializes nft into NFToken account data, the inverse of ParseNFT.
// It is the public fixture API for tests and local validators that need real
// account bytes; the explorer itself only decodes.
func EncodeNFT(nft models.NFT) ([]byte, error) {
	w := writer{buf: append([]byte(nil), nftDiscriminator...)}
	w.u8(1)
	w.pubkey(nft.Holder)
	w.pubkey(nft.Authority)
	w.bool(nft.AuthorityCanUpdate)
	w.pubkey(nft.Collection)
	w.pubkey(nft.Delegate)
	w.bool(nft.IsFrozen)
	w.raw(make([]byte, 3))
	w.string(nft.MetadataURL)
	if w.err != nil {
		return nil, w.err
	}
	return w.buf, nil
}

// EncodeCollection serializes c into NFToken collection account data, the
// inverse of ParseCollection. Like EncodeNFT it exists for fixtures.
func EncodeCollection(c models.Collection) ([]byte, error) {
	w := writer{buf: append([]byte(nil), collectionDiscriminator...)}
	w.u8(1)
	w.pubkey(c.Authority)
	w.bool(c.AuthorityCanUpdate)
	w.raw(make([]byte, 3))
	w.string(c.MetadataURL)
	if w.err != nil {
		return nil, w.err
	}
	return w.buf, nil
}

type writer struct {
	buf []byte
	err error
}

func (w *writer) raw(b []byte) { w.buf = append(w.buf, b...) }
func (w *writer) u8(v uint8)   { w.buf = append(w.buf, v) }

func (w *writer) bool(v bool) {
	if v {
		w.u8(1)
		return
	}
	w.u8(0)
}

func (w *writer) pubkey(s string) {
	if s == "" {
		w.raw(make([]byte, pubkeyLen))
		return
	}
	b, err := base58.Decode(s)
	if err != nil || len(b) != pubkeyLen {
		if w.err == nil {
			w.err = fmt.Errorf("invalid public key %q", s)
		}
		w.raw(make([]byte, pubkeyLen))
		return
	}
	w.raw(b)
}

func (w *writer) string(s string) {
	var l [4]byte
	binary.LittleEndian.PutUint32(l[:], uint32(len(s)))
	w.raw(l[:])
	w.raw([]byte(s))
}
