package sdk

import "context"

// Nop implements SDK with handles that always succeed immediately.
type Nop struct{}

func (Nop) Start(ctx context.Context) error { return nil }

func (Nop) NewInterstitial(resourceRef string) Handle { return nopHandle{} }

type nopHandle struct{}

func (nopHandle) Load(ctx context.Context) error { return nil }

func (nopHandle) Show(ctx context.Context) error { return nil }
