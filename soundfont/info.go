package soundfont

import (
	"encoding/binary"
	"fmt"
	"log/slog"
)

// Version is a major.minor pair from ifil or iver.
type Version struct {
	Major int
	Minor int
}

func (v Version) String() string { return fmt.Sprintf("%d.%02d", v.Major, v.Minor) }

// Info holds the INFO list metadata of a bank.
type Info struct {
	Version    Version
	Engine     string
	Name       string
	ROM        string
	ROMVersion Version
	Created    string
	Engineers  string
	Product    string
	Copyright  string
	Comment    string
	Software   string
}

func decodeInfo(list *Chunk, logger *slog.Logger) Info {
	var info Info
	for _, ch := range list.Children {
		switch ch.ID.String() {
		case "ifil":
			info.Version = decodeVersion(ch.Data)
		case "iver":
			info.ROMVersion = decodeVersion(ch.Data)
		case "isng":
			info.Engine = cString(ch.Data)
		case "INAM":
			info.Name = cString(ch.Data)
		case "irom":
			info.ROM = cString(ch.Data)
		case "ICRD":
			info.Created = cString(ch.Data)
		case "IENG":
			info.Engineers = cString(ch.Data)
		case "IPRD":
			info.Product = cString(ch.Data)
		case "ICOP":
			info.Copyright = cString(ch.Data)
		case "ICMT":
			info.Comment = cString(ch.Data)
		case "ISFT":
			info.Software = cString(ch.Data)
		default:
			logger.Debug("soundfont: skipping unknown INFO chunk", "tag", ch.ID.String())
		}
	}
	return info
}

func decodeVersion(b []byte) Version {
	if len(b) < 4 {
		return Version{}
	}
	return Version{
		Major: int(binary.LittleEndian.Uint16(b[0:2])),
		Minor: int(binary.LittleEndian.Uint16(b[2:4])),
	}
}
