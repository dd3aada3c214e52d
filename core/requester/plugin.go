package requester

import (
	"context"
	"strconv"
	"strings"

	"github.com/vadiminshakov/adbridge/core/dto"
)

// PluginName is the host command handled by PluginCommand.
const PluginName = "adbridge"

const subGetStatus = "get_status"

// Variables is the host's numbered slot store.
type Variables interface {
	SetValue(id int, value int)
}

// PluginCommand handles a host command:
//
//	adbridge inter_ad_load
//	adbridge inter_ad_show
//	adbridge get_status <cmd> <varId>   (1 success, 0 failure, -1 unknown)
//
// It reports whether the command was addressed to this plugin.
func (r *Requester) PluginCommand(ctx context.Context, command string, args []string, vars Variables) bool {
	if !strings.EqualFold(command, PluginName) {
		return false
	}

	switch strings.ToLower(arg(args, 0)) {
	case dto.CommandLoad:
		r.Send(ctx, dto.CommandLoad)
	case dto.CommandShow:
		r.Send(ctx, dto.CommandShow)
	case subGetStatus:
		cmd := arg(args, 1)
		varID, _ := strconv.Atoi(arg(args, 2))
		if cmd != "" && varID > 0 && vars != nil {
			vars.SetValue(varID, r.Status(cmd).Value())
		}
	}

	return true
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
