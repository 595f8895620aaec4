package service

import "regexp"

var cedulaPattern = regexp.MustCompile(`^\d{10}$`)

// ValidCedulaFormat reports whether s is exactly ten ASCII digits.  This
// is the shape accepted at the HTTP boundary.
func ValidCedulaFormat(s string) bool {
    return cedulaPattern.MatchString(s)
}

// ValidCedulaChecksum applies the Ecuadorian cédula rules on top of the
// format: province code 01-24 or 30, third digit below 6, and the
// modulo-10 check digit with coefficients 2,1,2,1,2,1,2,1,2.
func ValidCedulaChecksum(s string) bool {
    if !ValidCedulaFormat(s) {
        return false
    }
    province := int(s[0]-'0')*10 + int(s[1]-'0')
    if (province < 1 || province > 24) && province != 30 {
        return false
    }
    if s[2]-'0' >= 6 {
        return false
    }
    sum := 0
    for i := 0; i < 9; i++ {
        d := int(s[i] - '0')
        if i%2 == 0 {
            d *= 2
            if d > 9 {
                d -= 9
            }
        }
        sum += d
    }
    check := (10 - sum%10) % 10
    return check == int(s[9]-'0')
}
