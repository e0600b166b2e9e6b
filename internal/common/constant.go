package common

// AuthorizationHeaderName is the HTTP header carrying the access token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix must precede the token in the Authorization header.
const BearerPrefix = "Bearer "

// HomeFolderName is the folder that receives uploads with no folder id.
const HomeFolderName = "Home"
