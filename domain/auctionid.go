package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// ComputeAuctionId derives the canonical AuctionId for the given fields: the
// lowercase hex SHA-256 digest of chain_id || block_number || seller ||
// blockspace_size || start_time || end_time || seller_sig, with every
// integer encoded as 8 bytes big-endian. This is a spec-mandated fixed
// encoding, not a design choice left to implementers.
func ComputeAuctionId(chainId ChainId, blockNumber uint64, seller []byte, blockspaceSize uint64, startTime, endTime int64, sellerSig []byte) string {
	h := sha256.New()

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(chainId))
	h.Write(buf[:])

	binary.BigEndian.PutUint64(buf[:], blockNumber)
	h.Write(buf[:])

	h.Write(seller)

	binary.BigEndian.PutUint64(buf[:], blockspaceSize)
	h.Write(buf[:])

	binary.BigEndian.PutUint64(buf[:], uint64(startTime))
	h.Write(buf[:])

	binary.BigEndian.PutUint64(buf[:], uint64(endTime))
	h.Write(buf[:])

	h.Write(sellerSig)

	return hex.EncodeToString(h.Sum(nil))
}

// NewAuctionInfo builds an AuctionInfo and populates its AuctionId from the
// canonical encoding of the remaining fields.
func NewAuctionInfo(chainId ChainId, blockNumber uint64, seller [20]byte, blockspaceSize uint64, startTime, endTime int64, sellerSig []byte) AuctionInfo {
	info := AuctionInfo{
		ChainId:        chainId,
		BlockNumber:    blockNumber,
		BlockspaceSize: blockspaceSize,
		StartTime:      startTime,
		EndTime:        endTime,
		SellerSig:      sellerSig,
	}
	info.Seller = seller
	info.AuctionId = ComputeAuctionId(chainId, blockNumber, seller[:], blockspaceSize, startTime, endTime, sellerSig)
	return info
}
