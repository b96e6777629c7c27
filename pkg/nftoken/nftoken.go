// Package nftoken decodes accounts owned by the NFToken program.
//
// Both account kinds are Anchor accounts: an 8 byte discriminator
// (sha256("account:<Name>")[:8]) followed by Borsh encoded fields.
package nftoken

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"nftokview/pkg/models"

	"github.com/mr-tron/base58"
)

// DefaultProgramID is the NFToken program on mainnet-beta and devnet.
const DefaultProgramID = "nftokf9qcHSYkVSP3P2gUMmV6d4AwjMueXgUu43HyLL"

const (
	discriminatorLen = 8
	pubkeyLen        = 32

	// NftCollectionOffset is the byte offset of the collection key inside an NFT
	// account: discriminator, version, holder, authority, authority_can_update.
	NftCollectionOffset = discriminatorLen + 1 + pubkeyLen + pubkeyLen + 1
)

// Kind is the result of classifying an account.
type Kind int

const (
	KindUnknown Kind = iota
	KindNFT
	KindCollection
)

func (k Kind) String() string {
	switch k {
	case KindNFT:
		return "nft"
	case KindCollection:
		return "collection"
	default:
		return "unknown"
	}
}

var (
	nftDiscriminator        = discriminator("NftAccount")
	collectionDiscriminator = discriminator("CollectionAccount")

	errShortData = errors.New("account data truncated")
)

func discriminator(name string) []byte {
	sum := sha256.Sum256([]byte("account:" + name))
	return sum[:discriminatorLen]
}

// NftDiscriminator returns the discriminator prefix of NFT accounts.
func NftDiscriminator() []byte {
	return append([]byte(nil), nftDiscriminator...)
}

// CollectionDiscriminator returns the discriminator prefix of collection accounts.
func CollectionDiscriminator() []byte {
	return append([]byte(nil), collectionDiscriminator...)
}

// Classify reports which card an account should be shown with. NFT parsing wins.
func Classify(acc *models.Account, programID string) Kind {
	if ParseNFT(acc, programID) != nil {
		return KindNFT
	}
	if ParseCollection(acc, programID) != nil {
		return KindCollection
	}
	return KindUnknown
}

// ParseNFT returns the NFT stored in acc, or nil if acc is not an NFToken NFT.
func ParseNFT(acc *models.Account, programID string) *models.NFT {
	if !ownedBy(acc, programID) || !bytes.HasPrefix(acc.Data, nftDiscriminator) {
		return nil
	}
	nft, err := decodeNFT(acc.Data[discriminatorLen:])
	if err != nil {
		return nil
	}
	nft.Address = acc.Address
	return nft
}

// ParseCollection returns the collection stored in acc, or nil if acc is not an
// NFToken collection.
func ParseCollection(acc *models.Account, programID string) *models.Collection {
	if !ownedBy(acc, programID) || !bytes.HasPrefix(acc.Data, collectionDiscriminator) {
		return nil
	}
	c, err := decodeCollection(acc.Data[discriminatorLen:])
	if err != nil {
		return nil
	}
	c.Address = acc.Address
	return c
}

func ownedBy(acc *models.Account, programID string) bool {
	if acc == nil {
		return false
	}
	if programID == "" {
		programID = DefaultProgramID
	}
	return acc.Owner == programID
}

type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > len(r.buf)-r.off {
		r.err = errShortData
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) bool() bool { return r.u8() != 0 }

// pubkey returns "" for the all-zero key.
func (r *reader) pubkey() string {
	b := r.take(pubkeyLen)
	if b == nil || isZero(b) {
		return ""
	}
	return base58.Encode(b)
}

func (r *reader) string() string {
	lb := r.take(4)
	if lb == nil {
		return ""
	}
	l := binary.LittleEndian.Uint32(lb)
	if uint64(l) > uint64(len(r.buf)-r.off) {
		r.err = errShortData
		return ""
	}
	return string(r.take(int(l)))
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func decodeNFT(data []byte) (*models.NFT, error) {
	r := &reader{buf: data}
	_ = r.u8() // version
	nft := &models.NFT{}
	nft.Holder = r.pubkey()
	nft.Authority = r.pubkey()
	nft.AuthorityCanUpdate = r.bool()
	nft.Collection = r.pubkey()
	nft.Delegate = r.pubkey()
	nft.IsFrozen = r.bool()
	r.take(3)
	nft.MetadataURL = r.string()
	if r.err != nil {
		return nil, r.err
	}
	return nft, nil
}

func decodeCollection(data []byte) (*models.Collection, error) {
	r := &reader{buf: data}
	_ = r.u8() // version
	c := &models.Collection{}
	c.Authority = r.pubkey()
	c.AuthorityCanUpdate = r.bool()
	r.take(3)
	c.MetadataURL = r.string()
	if r.err != nil {
		return nil, r.err
	}
	return c, nil
}
