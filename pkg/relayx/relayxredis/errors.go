package relayxredis

import "github.com/Abraxas-365/mailrelay/pkg/errx"

var redisErrors = errx.NewRegistry("RELAYX_REDIS")

var (
	ErrWrite = redisErrors.Register("WRITE", errx.TypeExternal, 500, "Redis metrics write failed")
	ErrRead  = redisErrors.Register("READ", errx.TypeExternal, 500, "Redis metrics read failed")
	ErrParse = redisErrors.Register("PARSE", errx.TypeInternal, 500, "Invalid metric value in Redis")
)
