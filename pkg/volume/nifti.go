package volume

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// nifti1Header is the fixed 348-byte NIfTI-1 header. Field names follow the
// reference definition so the binary layout is easy to audit.
type nifti1Header struct {
	SizeofHdr    int32
	DataTypeName [10]byte
	DBName       [18]byte
	Extents      int32
	SessionError int16
	Regular      byte
	DimInfo      byte
	Dim          [8]int16
	IntentP1     float32
	IntentP2     float32
	IntentP3     float32
	IntentCode   int16
	Datatype     int16
	Bitpix       int16
	SliceStart   int16
	Pixdim       [8]float32
	VoxOffset    float32
	SclSlope     float32
	SclInter     float32
	SliceEnd     int16
	SliceCode    byte
	XyztUnits    byte
	CalMax       float32
	CalMin       float32
	SliceDur     float32
	Toffset      float32
	Glmax        int32
	Glmin        int32
	Descrip      [80]byte
	AuxFile      [24]byte
	QformCode    int16
	SformCode    int16
	QuaternB     float32
	QuaternC     float32
	QuaternD     float32
	QoffsetX     float32
	QoffsetY     float32
	QoffsetZ     float32
	SrowX        [4]float32
	SrowY        [4]float32
	SrowZ        [4]float32
	IntentName   [16]byte
	Magic        [4]byte
}

const nifti1HeaderSize = 348

// NIfTI-1 datatype codes supported by the reader.
const (
	dtUint8   = 2
	dtInt16   = 4
	dtInt32   = 8
	dtFloat32 = 16
	dtFloat64 = 64
)

// Load reads a NIfTI-1 volume from path. Files ending in ".gz" are
// decompressed transparently. Both byte orders are handled; the recorded
// intensity scaling (scl_slope/scl_inter) is applied to the returned data.
func Load(path string) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	return decode(r, path)
}

func decode(r io.Reader, path string) (*Volume, error) {
	raw := make([]byte, nifti1HeaderSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// dim[0] holds the number of dimensions (1..7). A value outside that
	// range means the file was written with the opposite byte order.
	order := binary.ByteOrder(binary.LittleEndian)
	ndim := int16(binary.LittleEndian.Uint16(raw[40:42]))
	if ndim < 1 || ndim > 7 {
		order = binary.BigEndian
	}

	var hdr nifti1Header
	if err := binary.Read(bytes.NewReader(raw), order, &hdr); err != nil {
		return nil, fmt.Errorf("failed to decode header: %w", err)
	}

	if hdr.SizeofHdr != nifti1HeaderSize {
		return nil, fmt.Errorf("%s: not a NIfTI-1 file (sizeof_hdr=%d)", path, hdr.SizeofHdr)
	}
	magic := string(hdr.Magic[:3])
	if magic != "n+1" {
		return nil, fmt.Errorf("%s: unsupported magic %q (only single-file n+1 images)", path, magic)
	}
	if hdr.Dim[0] < 1 || hdr.Dim[0] > 4 {
		return nil, fmt.Errorf("%s: unsupported dimensionality %d", path, hdr.Dim[0])
	}

	v := &Volume{
		NX:  dimOrOne(hdr.Dim, 1),
		NY:  dimOrOne(hdr.Dim, 2),
		NZ:  dimOrOne(hdr.Dim, 3),
		NT:  dimOrOne(hdr.Dim, 4),
		hdr: &hdr,
	}
	v.VoxelSize.X = float64(hdr.Pixdim[1])
	v.VoxelSize.Y = float64(hdr.Pixdim[2])
	v.VoxelSize.Z = float64(hdr.Pixdim[3])
	v.VoxelSize.T = float64(hdr.Pixdim[4])

	// Skip any header extension between the header and the voxel data.
	skip := int64(hdr.VoxOffset) - nifti1HeaderSize
	if skip < 0 {
		return nil, fmt.Errorf("%s: invalid vox_offset %f", path, hdr.VoxOffset)
	}
	if _, err := io.CopyN(io.Discard, r, skip); err != nil {
		return nil, fmt.Errorf("failed to skip header extension: %w", err)
	}

	n := v.NX * v.NY * v.NZ * v.NT
	data, err := readSamples(r, order, hdr.Datatype, n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// Apply intensity scaling. A zero slope means "no scaling recorded".
	slope := float64(hdr.SclSlope)
	inter := float64(hdr.SclInter)
	if slope != 0 && (slope != 1 || inter != 0) {
		for i := range data {
			data[i] = data[i]*slope + inter
		}
	}
	v.Data = data

	return v, nil
}

func dimOrOne(dim [8]int16, i int) int {
	if int(dim[0]) < i || dim[i] < 1 {
		return 1
	}
	return int(dim[i])
}

func readSamples(r io.Reader, order binary.ByteOrder, datatype int16, n int) ([]float64, error) {
	var width int
	switch datatype {
	case dtUint8:
		width = 1
	case dtInt16:
		width = 2
	case dtInt32, dtFloat32:
		width = 4
	case dtFloat64:
		width = 8
	default:
		return nil, fmt.Errorf("unsupported datatype code %d", datatype)
	}

	raw := make([]byte, n*width)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("failed to read voxel data: %w", err)
	}

	data := make([]float64, n)
	for i := 0; i < n; i++ {
		b := raw[i*width:]
		switch datatype {
		case dtUint8:
			data[i] = float64(b[0])
		case dtInt16:
			data[i] = float64(int16(order.Uint16(b)))
		case dtInt32:
			data[i] = float64(int32(order.Uint32(b)))
		case dtFloat32:
			data[i] = float64(math.Float32frombits(order.Uint32(b)))
		case dtFloat64:
			data[i] = math.Float64frombits(order.Uint64(b))
		}
	}
	return data, nil
}

// Save writes v to path as a float32 single-file NIfTI-1 image, gzipped when
// the path ends in ".gz". When v was loaded from disk (or derived from a
// loaded volume) the source header is carried over so orientation and
// spacing metadata survive; only the dimensions, datatype and scaling
// fields are rewritten.
func Save(path string, v *Volume) error {
	hdr := defaultHeader(v)
	if v.hdr != nil {
		hdr = *v.hdr
	}

	hdr.SizeofHdr = nifti1HeaderSize
	hdr.Dim = [8]int16{3, int16(v.NX), int16(v.NY), int16(v.NZ), 1, 1, 1, 1}
	if v.NT > 1 {
		hdr.Dim[0] = 4
		hdr.Dim[4] = int16(v.NT)
	}
	hdr.Datatype = dtFloat32
	hdr.Bitpix = 32
	hdr.VoxOffset = nifti1HeaderSize + 4
	hdr.SclSlope = 1
	hdr.SclInter = 0
	copy(hdr.Magic[:], "n+1\x00")

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		w = gz
	}
	bw := bufio.NewWriter(w)

	if err := binary.Write(bw, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	// Empty extension marker.
	if _, err := bw.Write([]byte{0, 0, 0, 0}); err != nil {
		return err
	}
	for _, s := range v.Data {
		if err := binary.Write(bw, binary.LittleEndian, float32(s)); err != nil {
			return fmt.Errorf("failed to write voxel data: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return err
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return err
		}
	}
	return nil
}

func defaultHeader(v *Volume) nifti1Header {
	var hdr nifti1Header
	hdr.Pixdim = [8]float32{1,
		float32(v.VoxelSize.X), float32(v.VoxelSize.Y), float32(v.VoxelSize.Z),
		float32(v.VoxelSize.T), 1, 1, 1}
	for i := 1; i < 4; i++ {
		if hdr.Pixdim[i] == 0 {
			hdr.Pixdim[i] = 1
		}
	}
	return hdr
}
