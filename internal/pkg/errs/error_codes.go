/*
Package errs provides custom error types and application-level error code constants.

These codes identify specific business or system errors both inside the server
and in responses sent to clients over the synchronous HTTP surface.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON is malformed.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrFormParseFailed indicates failure to parse multipart or URL-encoded form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate exceeded the configured limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Room, Server and Content Business Logic Errors
const (
	// ErrRoomNotFound indicates the referenced room does not exist or is not visible.
	ErrRoomNotFound = 2101

	// ErrServerNotFound indicates the referenced server does not exist.
	ErrServerNotFound = 2102

	// ErrNotServerMember indicates the acting user is not a member of the server.
	ErrNotServerMember = 2103

	// ErrInvalidRoomName indicates a server or group name failed validation.
	ErrInvalidRoomName = 2104

	// ErrGroupMembersInvalid indicates a group creation request with no resolvable members.
	ErrGroupMembersInvalid = 2105

	// ErrNotGroupOwner indicates a group management action by a non-owner.
	ErrNotGroupOwner = 2106

	// ErrInviteInvalid indicates an unknown or expired server invite token.
	ErrInviteInvalid = 2107

	// ErrMessageContentTooLong indicates message content exceeded the length limit.
	ErrMessageContentTooLong = 2201

	// ErrFileTypeNotAllowed indicates an upload with a disallowed file extension.
	ErrFileTypeNotAllowed = 2202

	// ErrFileSizeTooLarge indicates an upload exceeding the size limit.
	ErrFileSizeTooLarge = 2203
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrAlreadyLoggedIn indicates an auth action while already authenticated.
	ErrAlreadyLoggedIn = 3001

	// ErrInvalidUsername indicates a username failing format validation.
	ErrInvalidUsername = 3002

	// ErrInvalidPassword indicates a password failing format validation.
	ErrInvalidPassword = 3003

	// ErrUserAlreadyExists indicates a registration conflict on username.
	ErrUserAlreadyExists = 3004

	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = 3005

	// ErrUserNotFound indicates the referenced account does not exist.
	ErrUserNotFound = 3006

	// ErrFriendRequestInvalid indicates a self-request or duplicate friend request.
	ErrFriendRequestInvalid = 3007

	// ErrUnauthorized indicates a request without a valid authenticated identity.
	ErrUnauthorized = 3100
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000

	// ErrFileStorageFailed indicates a media storage (S3) operation failure.
	ErrFileStorageFailed = 5001
)
