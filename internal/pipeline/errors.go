package pipeline

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func errUnauthenticated(msg string) error {
	return status.Error(codes.Unauthenticated, msg)
}

func errInvalidArgument(format string, args ...interface{}) error {
	return status.Error(codes.InvalidArgument, fmt.Sprintf(format, args...))
}

func errNotFound(msg string) error {
	return status.Error(codes.NotFound, msg)
}

func errInternal(format string, args ...interface{}) error {
	return status.Error(codes.Internal, fmt.Sprintf(format, args...))
}
