package server

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// WhiteListChecker intercepts streams and checks that the caller is whitelisted.
func WhiteListChecker(srv interface{},
	ss grpc.ServerStream,
	info *grpc.StreamServerInfo,
	handler grpc.StreamHandler) error {
	peerinfo, ok := peer.FromContext(ss.Context())
	if !ok {
		return status.Errorf(codes.Internal, "failed to retrieve peer info")
	}

	host, _, err := net.SplitHostPort(peerinfo.Addr.String())
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}

	serv, ok := srv.(*Server)
	if !ok {
		return status.Errorf(codes.Internal, "unexpected service %T", srv)
	}
	if !includes(serv.Config.Whitelist, host) {
		return status.Errorf(codes.PermissionDenied, "host %s is not in whitelist", host)
	}

	// Calls the handler
	return handler(srv, ss)
}

// includes checks that the 'arr' includes 'value'
func includes(arr []string, value string) bool {
	for i := range arr {
		if arr[i] == value {
			return true
		}
	}
	return false
}
