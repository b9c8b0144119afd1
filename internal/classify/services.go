package classify

import "netlens.dev/netlens/internal/core"

// wellKnownServices maps well-known ports to service names. The table is
// extended, never replaced, by classifier configuration.
var wellKnownServices = map[uint16]string{
	20:    "FTP-DATA",
	21:    "FTP",
	22:    "SSH",
	23:    "Telnet",
	25:    "SMTP",
	53:    "DNS",
	67:    "DHCP",
	68:    "DHCP",
	69:    "TFTP",
	80:    "HTTP",
	110:   "POP3",
	119:   "NNTP",
	123:   "NTP",
	135:   "MSRPC",
	137:   "NetBIOS-NS",
	138:   "NetBIOS-DGM",
	139:   "NetBIOS-SSN",
	143:   "IMAP",
	161:   "SNMP",
	162:   "SNMP-Trap",
	179:   "BGP",
	389:   "LDAP",
	443:   "HTTPS",
	445:   "SMB",
	465:   "SMTPS",
	514:   "Syslog",
	587:   "SMTP-Submission",
	636:   "LDAPS",
	853:   "DNS-over-TLS",
	873:   "rsync",
	993:   "IMAPS",
	995:   "POP3S",
	1080:  "SOCKS",
	1433:  "MSSQL",
	1521:  "Oracle",
	1723:  "PPTP",
	2049:  "NFS",
	3128:  "HTTP-Proxy",
	3306:  "MySQL",
	3389:  "RDP",
	5060:  "SIP",
	5061:  "SIPS",
	5432:  "PostgreSQL",
	5672:  "AMQP",
	5900:  "VNC",
	6379:  "Redis",
	8080:  "HTTP-Alt",
	8443:  "HTTPS-Alt",
	9092:  "Kafka",
	11211: "Memcached",
	27017: "MongoDB",
}

// highImportancePorts are remote-admin or credential-bearing services: a
// packet touching one of these always rates high importance.
var highImportancePorts = map[uint16]bool{
	21:   true, // FTP sends credentials in cleartext
	22:   true,
	23:   true, // Telnet sends credentials in cleartext
	80:   true,
	443:  true,
	3389: true,
	5900: true,
}

// mediumImportancePorts are infrastructure services worth a second look.
var mediumImportancePorts = map[uint16]bool{
	53:  true,
	67:  true,
	68:  true,
	123: true,
}

// importanceFor assigns the importance tier for a record. Pure table lookup:
// the same record always yields the same tier.
// IsWellKnown reports whether port is in the built-in service table.
func IsWellKnown(port uint16) bool {
	_, ok := wellKnownServices[port]
	return ok
}

func importanceFor(r *core.PacketRecord) core.Importance {
	switch {
	case r.TCP != nil:
		if highImportancePorts[r.TCP.DstPort] || highImportancePorts[r.TCP.SrcPort] {
			return core.ImportanceHigh
		}
		for _, f := range r.TCP.Flags {
			if f == 'R' || f == 'F' {
				return core.ImportanceMedium
			}
		}
		return core.ImportanceLow
	case r.UDP != nil:
		if mediumImportancePorts[r.UDP.DstPort] || mediumImportancePorts[r.UDP.SrcPort] {
			return core.ImportanceMedium
		}
		return core.ImportanceLow
	case r.ICMP != nil:
		return core.ImportanceMedium
	default:
		return core.ImportanceLow
	}
}
