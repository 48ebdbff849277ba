// Package serialization saves and restores training checkpoints.
//
// A checkpoint is a stateless.State plus bookkeeping (epoch, step, loss,
// run id). The on-disk layout is:
//
//	0x00  magic "PSTP"
//	0x04  format version (uint32, little endian)
//	0x08  flags (uint32)
//	0x0C  reserved
//	0x10  header size (uint64)
//	0x18  data size (uint64)
//	0x20  SHA-256 of the data section (32 bytes)
//	0x40  JSON header
//	      zero padding up to a 64-byte boundary
//	      tensor data, float32 little endian, in header order
//
// Tensors are named "<group>.<index>" where group is one of trainable,
// non_trainable, optimizer or metrics. Values round-trip bit for bit.
//
// Example:
//
//	ckpt := &serialization.Checkpoint{State: state, Meta: serialization.CheckpointMeta{Epoch: 3}}
//	if err := serialization.Save("run.pstp", ckpt); err != nil {
//	    return err
//	}
//	restored, err := serialization.Load("run.pstp")
package serialization
