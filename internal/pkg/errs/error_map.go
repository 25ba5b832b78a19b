/*
Package errs provides custom error types and application-level error code constants.

errorMap translates every error code into its CustomError template, standardizing
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the CustomError corresponding to every application error code.
// A zero Status renders as HTTP 200 with a non-zero business code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process uploaded data."},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large."},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Room, Server and Content Business Logic Errors
	ErrRoomNotFound:          {Code: ErrRoomNotFound, Message: "Room not found."},
	ErrServerNotFound:        {Code: ErrServerNotFound, Message: "Server not found."},
	ErrNotServerMember:       {Code: ErrNotServerMember, Message: "You are not a member of this server.", Status: http.StatusForbidden},
	ErrInvalidRoomName:       {Code: ErrInvalidRoomName, Message: "Invalid name."},
	ErrGroupMembersInvalid:   {Code: ErrGroupMembersInvalid, Message: "No valid members for this group."},
	ErrNotGroupOwner:         {Code: ErrNotGroupOwner, Message: "Only the group owner can do that.", Status: http.StatusForbidden},
	ErrInviteInvalid:         {Code: ErrInviteInvalid, Message: "Invite is invalid or has expired."},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},
	ErrFileTypeNotAllowed:    {Code: ErrFileTypeNotAllowed, Message: "File type not allowed."},
	ErrFileSizeTooLarge:      {Code: ErrFileSizeTooLarge, Message: "File is too large."},

	// 3xxx: User, Session, and Security Errors
	ErrAlreadyLoggedIn:      {Code: ErrAlreadyLoggedIn, Message: "You are already signed in."},
	ErrInvalidUsername:      {Code: ErrInvalidUsername, Message: "Invalid username."},
	ErrInvalidPassword:      {Code: ErrInvalidPassword, Message: "Invalid password."},
	ErrUserAlreadyExists:    {Code: ErrUserAlreadyExists, Message: "Username is already taken."},
	ErrInvalidCredentials:   {Code: ErrInvalidCredentials, Message: "Incorrect username or password."},
	ErrUserNotFound:         {Code: ErrUserNotFound, Message: "Account not found."},
	ErrFriendRequestInvalid: {Code: ErrFriendRequestInvalid, Message: "Friend request cannot be sent."},
	ErrUnauthorized:         {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown:           {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrFileStorageFailed: {Code: ErrFileStorageFailed, Message: "File upload failed. Please try again."},
}
