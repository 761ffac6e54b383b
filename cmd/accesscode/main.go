// accesscode prints the access code last delivered to a phone while OTP_RETURN_TO_CLIENT is
// set. Codes are shared across processes only through Redis, so REDIS_ADDR is required.
// Usage: go run ./cmd/accesscode -phone +79121234567
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"user-enrollment/backend/internal/accesscode"
	"user-enrollment/backend/internal/config"
	"user-enrollment/backend/internal/logging"
	"user-enrollment/backend/internal/user/domain"
)

func main() {
	phone := flag.String("phone", "", "Phone the code was sent to, in any format")
	wait := flag.Duration("wait", 0, "How long to wait for a code that has not arrived yet")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.New("accesscode", "production", "").WithError(err).Fatal("config")
	}
	log := logging.New(cfg.ServiceName+"-accesscode", cfg.Env, cfg.LogLevel)

	switch {
	case !cfg.OTPReturnToClient:
		log.Fatal("accesscode: OTP_RETURN_TO_CLIENT is not set; codes are not stored")
	case cfg.RedisAddr == "":
		log.Fatal("accesscode: REDIS_ADDR is required to read codes written by another process")
	case !domain.IsValidPhone(*phone):
		log.Fatal("accesscode: -phone must be + followed by 11 digits")
	}

	rdb := accesscode.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rdb.Close()
	store := accesscode.NewRedisStore(rdb)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second+*wait)
	defer cancel()
	key := domain.NormalizePhone(*phone)

	var code string
	if *wait > 0 {
		code, err = accesscode.Await(ctx, store, key)
	} else {
		var ok bool
		code, ok, err = store.Get(ctx, key)
		if err == nil && !ok {
			err = accesscode.ErrNotFound
		}
	}
	if err != nil {
		log.WithError(err).WithField("phone", logging.MaskPhone(key)).Error("accesscode: lookup failed")
		os.Exit(1)
	}
	fmt.Println(code)
}
